package pulsepicker_test

import (
	"errors"
	"math"
	"testing"

	"github.com/nasa-jpl/pulsepicker/pulsepicker"
)

func TestDefaultsAreValid(t *testing.T) {
	for _, long := range []bool{false, true} {
		p := pulsepicker.DefaultTimingParameters(long)
		if err := p.Validate(); err != nil {
			t.Errorf("defaults (long=%v) should be valid, got %v", long, err)
		}
		if p.PreOpenUs != 0.2 || p.PostOpenUs != 0.2 || p.OpenUs != 0.001 || p.AllowLongPulses != long {
			t.Errorf("unexpected defaults %+v", p)
		}
	}
}

func TestOpenTooLong(t *testing.T) {
	p := pulsepicker.DefaultTimingParameters(false)
	_, err := p.WithOpenUs(0.003)
	if !errors.Is(err, pulsepicker.ErrOpenTooLong) {
		t.Errorf("expected ErrOpenTooLong, got %v", err)
	}
	// exactly two laser periods is fine
	if _, err := p.WithOpenUs(2 * pulsepicker.LaserPeriodUs); err != nil {
		t.Errorf("two laser periods should be allowed, got %v", err)
	}
}

func TestLongPulsesAllowed(t *testing.T) {
	p := pulsepicker.DefaultTimingParameters(true)
	p, err := p.WithPreOpenUs(1)
	if err != nil {
		t.Fatal(err)
	}
	p, err = p.WithPostOpenUs(1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.WithOpenUs(0.5); err != nil {
		t.Errorf("long pulse should be accepted when allowed, got %v", err)
	}
}

func TestWithLeavesReceiverUntouched(t *testing.T) {
	p := pulsepicker.DefaultTimingParameters(false)
	q, err := p.WithAlignUs(0.0005)
	if err != nil {
		t.Fatal(err)
	}
	if p.AlignUs != 0 {
		t.Errorf("receiver was modified: %+v", p)
	}
	if q.AlignUs != 0.0005 {
		t.Errorf("copy does not carry the change: %+v", q)
	}
	bad, err := p.WithAlignUs(1)
	if err == nil {
		t.Fatal("expected an error")
	}
	if bad != (pulsepicker.TimingParameters{}) {
		t.Errorf("expected the zero value alongside an error, got %+v", bad)
	}
}

func TestSwitchIntervalBoundary(t *testing.T) {
	p := pulsepicker.TimingParameters{PreOpenUs: 0.15, PostOpenUs: 0.15, OpenUs: 0}
	if err := p.Validate(); err != nil {
		t.Errorf("intervals exactly at the minimum should pass, got %v", err)
	}
	p.PreOpenUs = 0.149
	if err := p.Validate(); !errors.Is(err, pulsepicker.ErrPreOpenTooShort) {
		t.Errorf("expected ErrPreOpenTooShort, got %v", err)
	}
	p.PreOpenUs = 0.2
	p.PostOpenUs = 0.149
	if err := p.Validate(); !errors.Is(err, pulsepicker.ErrPostOpenTooShort) {
		t.Errorf("expected ErrPostOpenTooShort, got %v", err)
	}
}

func TestOpenEatsIntoSwitchInterval(t *testing.T) {
	p := pulsepicker.TimingParameters{PreOpenUs: 0.1505, PostOpenUs: 0.2, OpenUs: 0.002, AllowLongPulses: true}
	if err := p.Validate(); !errors.Is(err, pulsepicker.ErrPreOpenTooShort) {
		t.Errorf("half the open time counts against the pre-open interval, got %v", err)
	}
}

func TestValidateReportsFirstViolation(t *testing.T) {
	// everything wrong at once
	p := pulsepicker.TimingParameters{
		OffsetOnUs:  1,
		OffsetOffUs: 1,
		PreOpenUs:   0,
		PostOpenUs:  0,
		OpenUs:      -1,
		AlignUs:     1,
	}
	order := []struct {
		fix  func(*pulsepicker.TimingParameters)
		want error
	}{
		{func(p *pulsepicker.TimingParameters) { p.OpenUs = 1 }, pulsepicker.ErrNegativeOpen},
		{func(p *pulsepicker.TimingParameters) { p.OpenUs = 0 }, pulsepicker.ErrOpenTooLong},
		{func(p *pulsepicker.TimingParameters) { p.PreOpenUs = 0.2 }, pulsepicker.ErrPreOpenTooShort},
		{func(p *pulsepicker.TimingParameters) { p.PostOpenUs = 0.2 }, pulsepicker.ErrPostOpenTooShort},
		{func(p *pulsepicker.TimingParameters) { p.AlignUs = 0 }, pulsepicker.ErrAlignTooLarge},
		{func(p *pulsepicker.TimingParameters) { p.OffsetOnUs = 0 }, pulsepicker.ErrOnOffsetTooLarge},
		{func(p *pulsepicker.TimingParameters) { p.OffsetOffUs = 0 }, pulsepicker.ErrOffOffsetTooLarge},
	}
	for _, step := range order {
		if err := p.Validate(); !errors.Is(err, step.want) {
			t.Fatalf("expected %v, got %v", step.want, err)
		}
		step.fix(&p)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("expected valid parameters once everything is fixed, got %v", err)
	}
}

func TestOffsetLimits(t *testing.T) {
	p := pulsepicker.DefaultTimingParameters(false)
	for _, v := range []float64{-0.002, 0.002, 0.001, -0.0005} {
		if _, err := p.WithOffsetOnUs(v); err != nil {
			t.Errorf("on offset %v should be accepted, got %v", v, err)
		}
		if _, err := p.WithOffsetOffUs(v); err != nil {
			t.Errorf("off offset %v should be accepted, got %v", v, err)
		}
	}
	if _, err := p.WithOffsetOnUs(-0.0021); !errors.Is(err, pulsepicker.ErrOnOffsetTooLarge) {
		t.Errorf("expected ErrOnOffsetTooLarge, got %v", err)
	}
	if _, err := p.WithOffsetOffUs(0.0021); !errors.Is(err, pulsepicker.ErrOffOffsetTooLarge) {
		t.Errorf("expected ErrOffOffsetTooLarge, got %v", err)
	}
}

func TestAlignLimit(t *testing.T) {
	p := pulsepicker.DefaultTimingParameters(false)
	if _, err := p.WithAlignUs(-pulsepicker.LaserPeriodUs / 2); err != nil {
		t.Errorf("half a laser period should be accepted, got %v", err)
	}
	if _, err := p.WithAlignUs(0.001); !errors.Is(err, pulsepicker.ErrAlignTooLarge) {
		t.Errorf("expected ErrAlignTooLarge, got %v", err)
	}
}

func TestNonFiniteRejected(t *testing.T) {
	p := pulsepicker.DefaultTimingParameters(true)
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := p.WithOpenUs(v); err == nil {
			t.Errorf("expected %v to be rejected", v)
		}
		var ite pulsepicker.InvalidTimingError
		if _, err := p.WithPreOpenUs(v); !errors.As(err, &ite) {
			t.Errorf("expected an InvalidTimingError for %v, got %v", v, err)
		}
	}
}
