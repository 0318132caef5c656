package bme_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nasa-jpl/pulsepicker/bme"
)

func ExampleGateFlags() {
	flags, _ := bme.GateFlags([3]bme.OutputGateMode{bme.Xor, bme.Direct, bme.Or})
	fmt.Printf("%#x\n", flags)
	// Output: 0x130000
}

func ExampleStatusFlags_String() {
	s := bme.StatusFlags(bme.ChannelAActive | bme.PrimaryTriggerActive)
	fmt.Println(s)
	// Output: channel-a-active|primary-trigger-active
}

func TestStatusTextKnownCode(t *testing.T) {
	if got := bme.StatusText(3); got != "Delay time negative" {
		t.Errorf("expected the table message for code 3, got %q", got)
	}
}

func TestStatusTextUnknownCode(t *testing.T) {
	if got := bme.StatusText(99); got != "unknown error code 99" {
		t.Errorf("expected generic message for code 99, got %q", got)
	}
}

func TestStatusTableIsComplete(t *testing.T) {
	for code := 1; code <= 14; code++ {
		if _, ok := bme.StatusCodes[code]; !ok {
			t.Errorf("status code %d has no message", code)
		}
	}
}

func TestErrorIncludesCode(t *testing.T) {
	err := bme.Error{Code: 7, Msg: bme.StatusText(7)}
	if !strings.Contains(err.Error(), "Invalid clock source") || !strings.Contains(err.Error(), "7") {
		t.Errorf("error text %q lacks the message or the code", err.Error())
	}
	if strings.Contains(bme.ErrNoCard.Error(), "status") {
		t.Errorf("detection error %q should not carry a status code", bme.ErrNoCard.Error())
	}
}

func TestConfigurationErrorIsBadRequest(t *testing.T) {
	var err error = bme.ConfigurationError{Msg: "nope"}
	var br interface{ BadRequest() bool }
	if !errors.As(err, &br) || !br.BadRequest() {
		t.Error("ConfigurationError should report itself as a bad request")
	}
}

func TestStatusFlagsSafe(t *testing.T) {
	cases := []struct {
		word bme.StatusFlags
		safe bool
	}{
		{0, true},
		{bme.StatusFlags(bme.PrimaryTriggerActive), false},
		{bme.StatusFlags(bme.PrimaryTriggerActive | bme.AllWaitTimesElapsed), true},
		{bme.StatusFlags(bme.AllWaitTimesElapsed), true},
		{bme.StatusFlags(bme.ChannelCActive | bme.PrimaryTriggerActive), false},
	}
	for _, c := range cases {
		if got := c.word.Safe(); got != c.safe {
			t.Errorf("%v: expected safe=%v, got %v", c.word, c.safe, got)
		}
	}
}

func TestStatusFlagsNames(t *testing.T) {
	s := bme.StatusFlags(bme.ChannelFActive | bme.TerminalCountReached | bme.LoadCommandActive)
	expected := []string{"channel-f-active", "terminal-count-reached", "load-command-active"}
	if diff := cmp.Diff(expected, s.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if n := bme.StatusFlags(0).Names(); len(n) != 0 {
		t.Errorf("expected no names for an empty word, got %v", n)
	}
}

func TestParseClockSource(t *testing.T) {
	for in, want := range map[string]bme.ClockSource{
		"internal":       bme.Internal,
		"External-80MHz": bme.External80MHz,
		"external":       bme.External80MHz,
	} {
		got, err := bme.ParseClockSource(in)
		if err != nil {
			t.Errorf("%q: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("%q: expected %v, got %v", in, want, got)
		}
		if back, _ := bme.ParseClockSource(got.String()); back != got {
			t.Errorf("%v does not round trip through its name", got)
		}
	}
	if _, err := bme.ParseClockSource("rubidium"); err == nil {
		t.Error("expected an error for an unknown clock source")
	}
}

func TestParseOutputGateMode(t *testing.T) {
	for _, m := range []bme.OutputGateMode{bme.Direct, bme.Or, bme.And, bme.Xor} {
		got, err := bme.ParseOutputGateMode(m.String())
		if err != nil || got != m {
			t.Errorf("%v did not round trip, got %v, %v", m, got, err)
		}
	}
	if _, err := bme.ParseOutputGateMode("nand"); err == nil {
		t.Error("expected an error for an unknown gate mode")
	}
}
