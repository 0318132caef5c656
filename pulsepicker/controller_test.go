package pulsepicker_test

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nasa-jpl/pulsepicker/bme"
	"github.com/nasa-jpl/pulsepicker/pulsepicker"
)

// fakeCard records what the controller sends it
type fakeCard struct {
	calls    []string
	gates    [3]bme.OutputGateMode
	external bool
	inhibit  float64
	pushed   []bme.PulseParameters

	// fail makes every call return it
	fail error
}

func (f *fakeCard) SetTrigger(useExternalGate bool, inhibitUs float64) error {
	f.calls = append(f.calls, fmt.Sprintf("trigger(%v, %g)", useExternalGate, inhibitUs))
	if f.fail != nil {
		return f.fail
	}
	f.external, f.inhibit = useExternalGate, inhibitUs
	return nil
}

func (f *fakeCard) SetOutputGates(modes [3]bme.OutputGateMode) error {
	f.calls = append(f.calls, fmt.Sprintf("gates%v", modes))
	if f.fail != nil {
		return f.fail
	}
	f.gates = modes
	return nil
}

func (f *fakeCard) SetPulseParameters(params []bme.PulseParameters) error {
	f.calls = append(f.calls, "pulses")
	if f.fail != nil {
		return f.fail
	}
	f.pushed = append([]bme.PulseParameters(nil), params...)
	return nil
}

func newController(t *testing.T, long bool) (*pulsepicker.Controller, *fakeCard) {
	t.Helper()
	card := &fakeCard{}
	ctl, err := pulsepicker.New(card, long)
	if err != nil {
		t.Fatal(err)
	}
	card.calls = nil
	return ctl, card
}

func allOff() []bme.PulseParameters {
	return make([]bme.PulseParameters, bme.ChannelCount)
}

func TestNewConfiguresCard(t *testing.T) {
	card := &fakeCard{}
	ctl, err := pulsepicker.New(card, false)
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"gates[or or direct]", "trigger(false, 0)", "pulses"}
	if diff := cmp.Diff(expected, card.calls); diff != "" {
		t.Errorf("call sequence mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(allOff(), card.pushed); diff != "" {
		t.Errorf("outputs should start disabled (-want +got):\n%s", diff)
	}
	if ctl.State().Enabled() || ctl.Simulated() {
		t.Errorf("unexpected initial state %+v, simulated=%v", ctl.State(), ctl.Simulated())
	}
	if !ctl.Ping() {
		t.Error("ping should return true")
	}
}

func TestNewHardwareError(t *testing.T) {
	card := &fakeCard{fail: bme.Error{Code: 11, Msg: bme.StatusText(11)}}
	if _, err := pulsepicker.New(card, false); err == nil {
		t.Error("expected the card error to surface")
	}
}

func TestEnableGated(t *testing.T) {
	ctl, card := newController(t, false)
	if err := ctl.EnableGated(5); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"trigger(true, 5)", "pulses"}, card.calls); diff != "" {
		t.Errorf("call sequence mismatch (-want +got):\n%s", diff)
	}
	expected := pulsepicker.State{Mode: pulsepicker.Gated, HoldoffUs: 5}
	if ctl.State() != expected {
		t.Errorf("expected %+v, got %+v", expected, ctl.State())
	}
	s := ctl.Schedule()
	if diff := cmp.Diff(s[:], card.pushed); diff != "" {
		t.Errorf("pushed schedule differs from the reported one (-want +got):\n%s", diff)
	}
	for i, ch := range card.pushed {
		if !ch.Enabled {
			t.Errorf("channel %d should be enabled", i)
		}
	}
}

func TestEnableFree(t *testing.T) {
	ctl, card := newController(t, false)
	if err := ctl.EnableFree(pulsepicker.DefaultMinPeriodUs); err != nil {
		t.Fatal(err)
	}
	if card.external || card.inhibit != pulsepicker.DefaultMinPeriodUs {
		t.Errorf("expected ungated trigger with %g inhibit, got %v %g", pulsepicker.DefaultMinPeriodUs, card.external, card.inhibit)
	}
	if ctl.State().Mode != pulsepicker.FreeRunning || !ctl.State().Enabled() {
		t.Errorf("unexpected state %+v", ctl.State())
	}
}

func TestDisable(t *testing.T) {
	ctl, card := newController(t, false)
	ctl.EnableGated(0)
	card.calls = nil
	if err := ctl.Disable(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"pulses"}, card.calls); diff != "" {
		t.Errorf("disable should only push the schedule (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(allOff(), card.pushed); diff != "" {
		t.Errorf("outputs should be off (-want +got):\n%s", diff)
	}
	if ctl.State().Enabled() {
		t.Error("expected disabled state")
	}
}

func TestSetterPushesWhenDisabled(t *testing.T) {
	ctl, card := newController(t, false)
	if err := ctl.SetPreOpenUs(0.3); err != nil {
		t.Fatal(err)
	}
	if len(card.calls) != 1 {
		t.Errorf("expected one push, got %v", card.calls)
	}
	if diff := cmp.Diff(allOff(), card.pushed); diff != "" {
		t.Errorf("disabled pushes are all off (-want +got):\n%s", diff)
	}
	if ctl.GetPreOpenUs() != 0.3 {
		t.Errorf("expected pre-open 0.3, got %v", ctl.GetPreOpenUs())
	}
}

func TestSetterPushesWhenEnabled(t *testing.T) {
	ctl, card := newController(t, false)
	ctl.EnableGated(1)
	if err := ctl.SetOffsetOffUs(-0.001); err != nil {
		t.Fatal(err)
	}
	if card.pushed[0].DelayUs != 0.001 || card.pushed[2].DelayUs != 0 {
		t.Errorf("OFF skew not applied: %+v", card.pushed)
	}
}

func TestRejectedSetterChangesNothing(t *testing.T) {
	ctl, card := newController(t, false)
	ctl.EnableGated(1)
	before := ctl.Timing()
	sched := ctl.Schedule()
	card.calls = nil

	setters := map[string]struct {
		set func(float64) error
		v   float64
	}{
		"open":       {ctl.SetOpenUs, 1},
		"pre-open":   {ctl.SetPreOpenUs, 0.1},
		"post-open":  {ctl.SetPostOpenUs, 0.1},
		"align":      {ctl.SetAlignUs, 1},
		"offset-on":  {ctl.SetOffsetOnUs, 1},
		"offset-off": {ctl.SetOffsetOffUs, -1},
	}
	for name, c := range setters {
		err := c.set(c.v)
		var ite pulsepicker.InvalidTimingError
		if !errors.As(err, &ite) {
			t.Errorf("%s: expected an InvalidTimingError, got %v", name, err)
		}
	}
	if len(card.calls) != 0 {
		t.Errorf("rejected values must not reach the card, got %v", card.calls)
	}
	if ctl.Timing() != before || ctl.Schedule() != sched {
		t.Error("rejected values must not change the controller")
	}
}

func TestGettersReflectSetters(t *testing.T) {
	ctl, _ := newController(t, true)
	cases := []struct {
		set func(float64) error
		get func() float64
		v   float64
	}{
		{ctl.SetOffsetOnUs, ctl.GetOffsetOnUs, 0.001},
		{ctl.SetOffsetOffUs, ctl.GetOffsetOffUs, -0.0015},
		{ctl.SetPreOpenUs, ctl.GetPreOpenUs, 0.25},
		{ctl.SetPostOpenUs, ctl.GetPostOpenUs, 0.3},
		{ctl.SetOpenUs, ctl.GetOpenUs, 0.01},
		{ctl.SetAlignUs, ctl.GetAlignUs, 0.0003},
	}
	for i, c := range cases {
		if err := c.set(c.v); err != nil {
			t.Errorf("case %d: %v", i, err)
			continue
		}
		if got := c.get(); got != c.v {
			t.Errorf("case %d: expected %v, got %v", i, c.v, got)
		}
	}
}

func TestHardwareErrorPropagates(t *testing.T) {
	ctl, card := newController(t, false)
	card.fail = bme.Error{Code: 5, Msg: bme.StatusText(5)}
	err := ctl.EnableFree(10)
	var e bme.Error
	if !errors.As(err, &e) || e.Code != 5 {
		t.Errorf("expected status 5, got %v", err)
	}
	if ctl.State().Enabled() {
		t.Error("state should not change when the trigger could not be programmed")
	}
}

func TestEnableRejectsBadInhibit(t *testing.T) {
	ctl, card := newController(t, false)
	ctl.EnableGated(3)
	card.calls = nil
	for _, v := range []float64{-1, math.NaN(), math.Inf(1)} {
		for name, enable := range map[string]func(float64) error{"gated": ctl.EnableGated, "free": ctl.EnableFree} {
			err := enable(v)
			var e bme.ConfigurationError
			if !errors.As(err, &e) {
				t.Errorf("%s(%g): expected a configuration error, got %v", name, v, err)
			}
		}
	}
	if len(card.calls) != 0 {
		t.Errorf("expected nothing sent to the card, got %v", card.calls)
	}
	if st := ctl.State(); st.Mode != pulsepicker.Gated || st.HoldoffUs != 3 {
		t.Errorf("state should not change, got %+v", st)
	}
}

func TestRestore(t *testing.T) {
	ctl, card := newController(t, false)
	ctl.EnableGated(3)
	card.calls = nil
	if err := ctl.Restore(); err != nil {
		t.Fatal(err)
	}
	expected := []string{"gates[or or direct]", "trigger(true, 3)", "pulses"}
	if diff := cmp.Diff(expected, card.calls); diff != "" {
		t.Errorf("call sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestSimulationMode(t *testing.T) {
	var buf bytes.Buffer
	ctl, err := pulsepicker.New(nil, false, pulsepicker.WithLogger(log.New(&buf, "", 0)))
	if err != nil {
		t.Fatal(err)
	}
	if !ctl.Simulated() {
		t.Error("a nil card should simulate")
	}
	if err := ctl.EnableGated(2); err != nil {
		t.Fatal(err)
	}
	if err := ctl.SetAlignUs(0.0002); err != nil {
		t.Fatal(err)
	}
	if !near(ctl.Schedule()[4].DelayUs, 0.2+0.0002-0.0005) {
		t.Errorf("schedule not computed in simulation: %+v", ctl.Schedule())
	}
	if _, err := ctl.Timing().WithOpenUs(1); err == nil {
		t.Error("validation applies in simulation too")
	}
	if err := ctl.SetOpenUs(1); err == nil {
		t.Error("validation applies in simulation too")
	}
	out := buf.String()
	for _, want := range []string{"simulation", "gated", "align"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q does not mention %q", out, want)
		}
	}
}

func TestModeJSONName(t *testing.T) {
	b, err := pulsepicker.FreeRunning.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"free-running"` {
		t.Errorf("unexpected encoding %s", b)
	}
}
