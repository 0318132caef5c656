package bme

import "fmt"

// StatusCodes maps the non-zero status values returned by the SDK to the
// causes listed on the "Error Codes" page of the BME_G0X help file.
// copied here to avoid C types as keys
var StatusCodes = map[int]string{
	1:  "Wrong product number",
	2:  "Delay generator index out of range",
	3:  "Delay time negative",
	4:  "Incompatible trigger modes specified",
	5:  "Delay time too long",
	6:  "Invalid output level",
	7:  "Invalid clock source",
	8:  "New calibration file created",
	9:  "Error writing to file",
	10: "File not found",
	11: "Low-level driver (PLX) command failed",
	12: "Communication with delay generator could not be established",
	13: "Improper ribbon cable connection to delay generator",
	14: "Proper ribbon cable connection to delay generator",
}

// Error is a delay generator error: a non-zero SDK status code or a failure
// to detect a usable card.  Code is zero for the latter.
type Error struct {
	Code int
	Msg  string
}

func (e Error) Error() string {
	if e.Code == 0 {
		return "bme: " + e.Msg
	}
	return fmt.Sprintf("bme: %s (status %d)", e.Msg, e.Code)
}

// StatusText returns the message for a status code, falling back to a
// generic one for codes outside the table
func StatusText(code int) string {
	if msg, ok := StatusCodes[code]; ok {
		return msg
	}
	return fmt.Sprintf("unknown error code %d", code)
}

// checkStatus converts a status code to an error, nil on success.
// codes 8 and 14 read as informational in the manual, they are errors here too
func checkStatus(code int) error {
	if code == 0 {
		return nil
	}
	return Error{Code: code, Msg: StatusText(code)}
}
