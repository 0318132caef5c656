/*Package bme provides an interface to BME (Bergmann Messgeraete Entwicklung)
delay generator PCI cards through the vendor's DelayGenerator SDK.

Only the BME_SG08p model is supported, and only one card per process.
The card is configured for driving a pulse picker head; trigger inputs,
termination and polarity are fixed to that application.

Basic usage is as followed:
 lib, err := bme.NewSDK() // needs -tags bmesdk
 if err != nil {
 	log.Fatal(err)
 }
 card, err := bme.Open(lib)
 if err != nil {
 	log.Fatal(err)
 }
 defer card.Close()
 card.SetClockSource(bme.External80MHz)
 card.SetTrigger(true, 0) // gated by the external input, no inhibit
 card.SetOutputGates([3]bme.OutputGateMode{bme.Or, bme.Or, bme.Direct})
 card.SetPulseParameters(params) // one entry per channel A..F

Every setter deactivates the card, reprograms it, and activates it again.
If the SDK reports an error part way through, the card is left deactivated
and Reset must be called to bring it back.
*/
package bme

import (
	"fmt"
	"strings"
)

// ChannelCount is the number of delay channels on the SG08p
const ChannelCount = 6

// ClockSource is the main clock for the card
type ClockSource int

const (
	// Internal uses the on-board 160 MHz oscillator
	Internal ClockSource = iota

	// External80MHz uses an external 80 MHz clock fed to the trigger input
	External80MHz
)

func (c ClockSource) String() string {
	switch c {
	case Internal:
		return "internal"
	case External80MHz:
		return "external-80mhz"
	default:
		return fmt.Sprintf("ClockSource(%d)", int(c))
	}
}

// ParseClockSource converts "internal" or "external-80mhz" to a ClockSource
func ParseClockSource(s string) (ClockSource, error) {
	switch strings.ToLower(s) {
	case "internal":
		return Internal, nil
	case "external-80mhz", "external":
		return External80MHz, nil
	default:
		return 0, ConfigurationError{fmt.Sprintf("unrecognised clock source %q", s)}
	}
}

// OutputGateMode describes how a pair of adjacent channels is combined
// before driving the outputs
type OutputGateMode int

const (
	// Direct routes each channel to its own output
	Direct OutputGateMode = iota

	// Or combines the pair with a logical OR, sent to both outputs
	Or

	// And combines the pair with a logical AND, sent to both outputs
	And

	// Xor combines the pair with an XOR-type operation.  This is not a true
	// XOR, which would give two pulses in general; the hardware gates the
	// result down to a single pulse
	Xor
)

func (m OutputGateMode) String() string {
	switch m {
	case Direct:
		return "direct"
	case Or:
		return "or"
	case And:
		return "and"
	case Xor:
		return "xor"
	default:
		return fmt.Sprintf("OutputGateMode(%d)", int(m))
	}
}

// ParseOutputGateMode converts "direct", "or", "and" or "xor" to an OutputGateMode
func ParseOutputGateMode(s string) (OutputGateMode, error) {
	switch strings.ToLower(s) {
	case "direct":
		return Direct, nil
	case "or":
		return Or, nil
	case "and":
		return And, nil
	case "xor":
		return Xor, nil
	default:
		return 0, ConfigurationError{fmt.Sprintf("unrecognised output gate mode %q", s)}
	}
}

// PulseParameters is the timing of a single delay channel
type PulseParameters struct {
	// Enabled determines if the channel produces a pulse at all
	Enabled bool `json:"enabled"`

	// DelayUs is the delay of the pulse relative to the sequence start, microseconds
	DelayUs float64 `json:"delayUs"`

	// WidthUs is the pulse width, microseconds
	WidthUs float64 `json:"widthUs"`
}

// ConfigurationError is returned when a call is malformed, before any
// hardware is touched
type ConfigurationError struct {
	Msg string
}

func (e ConfigurationError) Error() string {
	return "bme: " + e.Msg
}

// BadRequest marks the error as the caller's fault
func (e ConfigurationError) BadRequest() bool { return true }
