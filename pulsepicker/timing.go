package pulsepicker

import "math"

const (
	// LaserPeriodUs is the period of the 80 MHz pulse train
	LaserPeriodUs = 1.25e-3

	// MinSwitchIntervalUs is the minimum time between transitions of a switch.
	// The hardware limit is 50 ns, but the trigger pulses from the delay
	// generator are up to ~130 ns long
	MinSwitchIntervalUs = 150e-3

	// MaxChannelOffsetUs bounds the A/B skew of the ON and OFF switch pairs
	MaxChannelOffsetUs = 2e-3
)

// InvalidTimingError is returned when a set of parameters would violate the
// hardware timing constraints.  Nothing has been sent to the hardware when it
// is returned.
type InvalidTimingError struct {
	Reason string
}

func (e InvalidTimingError) Error() string {
	return "pulsepicker: invalid timing: " + e.Reason
}

// BadRequest marks the error as the caller's fault
func (e InvalidTimingError) BadRequest() bool { return true }

var (
	// ErrNegativeOpen is generated when OpenUs < 0
	ErrNegativeOpen = InvalidTimingError{"pulse on time must not be negative"}

	// ErrOpenTooLong is generated when OpenUs exceeds two laser periods
	// and long pulses are not allowed
	ErrOpenTooLong = InvalidTimingError{"pulse on time nonsensically long"}

	// ErrPreOpenTooShort is generated when the OFF to ON interval is below MinSwitchIntervalUs
	ErrPreOpenTooShort = InvalidTimingError{"pre-pulse delay too short"}

	// ErrPostOpenTooShort is generated when the ON to OFF reset interval is below MinSwitchIntervalUs
	ErrPostOpenTooShort = InvalidTimingError{"post-pulse/reset delay too short"}

	// ErrAlignTooLarge is generated when |AlignUs| exceeds half a laser period
	ErrAlignTooLarge = InvalidTimingError{"pulse train alignment nonsensically large"}

	// ErrOnOffsetTooLarge is generated when |OffsetOnUs| exceeds MaxChannelOffsetUs
	ErrOnOffsetTooLarge = InvalidTimingError{"channel/channel ON switch delay longer than 2 ns"}

	// ErrOffOffsetTooLarge is generated when |OffsetOffUs| exceeds MaxChannelOffsetUs
	ErrOffOffsetTooLarge = InvalidTimingError{"channel/channel OFF switch delay longer than 2 ns"}
)

// TimingParameters describes one pulse picking event.  All times are in
// microseconds.
//
// The type is a value; the With methods return a validated copy and leave
// the receiver untouched.
type TimingParameters struct {
	// OffsetOnUs is the skew between the nominally synchronous pulses to the
	// ON switches; positive means channel B is later
	OffsetOnUs float64 `json:"offsetOnUs"`

	// OffsetOffUs is the skew between the nominally synchronous pulses to the
	// OFF switches; positive means channel B is later
	OffsetOffUs float64 `json:"offsetOffUs"`

	// PreOpenUs is the wait between the initial OFF pulse and the ON pair
	PreOpenUs float64 `json:"preOpenUs"`

	// PostOpenUs is the wait between the ON pair and the second OFF pair
	PostOpenUs float64 `json:"postOpenUs"`

	// OpenUs is the time between the ON pair, i.e. the optical gate duration
	OpenUs float64 `json:"openUs"`

	// AlignUs shifts the ON pair on top of PreOpenUs, for calibrating
	// against the laser pulse train
	AlignUs float64 `json:"alignUs"`

	// AllowLongPulses permits OpenUs longer than two laser periods
	AllowLongPulses bool `json:"allowLongPulses"`
}

// DefaultTimingParameters returns the power-on parameters
func DefaultTimingParameters(allowLongPulses bool) TimingParameters {
	return TimingParameters{
		PreOpenUs:       0.2,
		PostOpenUs:      0.2,
		OpenUs:          0.001,
		AllowLongPulses: allowLongPulses,
	}
}

// Validate checks the parameters against the hardware limits and returns the
// first violation.  The switches can be damaged by triggering them in an
// inadequate way.
func (t TimingParameters) Validate() error {
	if t.OpenUs < 0 {
		return ErrNegativeOpen
	}
	if !t.AllowLongPulses && t.OpenUs > 2*LaserPeriodUs {
		return ErrOpenTooLong
	}
	if t.PreOpenUs-t.OpenUs/2 < MinSwitchIntervalUs {
		return ErrPreOpenTooShort
	}
	if t.PostOpenUs-t.OpenUs/2 < MinSwitchIntervalUs {
		return ErrPostOpenTooShort
	}
	if math.Abs(t.AlignUs) > LaserPeriodUs/2 {
		return ErrAlignTooLarge
	}
	if math.Abs(t.OffsetOnUs) > MaxChannelOffsetUs {
		return ErrOnOffsetTooLarge
	}
	if math.Abs(t.OffsetOffUs) > MaxChannelOffsetUs {
		return ErrOffOffsetTooLarge
	}
	return nil
}

// checkFinite rejects NaN and infinities, NaN compares false with everything
// and would otherwise pass Validate
func checkFinite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return InvalidTimingError{"time must be a finite number"}
	}
	return nil
}

func (t TimingParameters) with(v float64, set func(*TimingParameters)) (TimingParameters, error) {
	if err := checkFinite(v); err != nil {
		return TimingParameters{}, err
	}
	set(&t)
	if err := t.Validate(); err != nil {
		return TimingParameters{}, err
	}
	return t, nil
}

// WithOffsetOnUs returns a copy with OffsetOnUs changed, if valid
func (t TimingParameters) WithOffsetOnUs(v float64) (TimingParameters, error) {
	return t.with(v, func(c *TimingParameters) { c.OffsetOnUs = v })
}

// WithOffsetOffUs returns a copy with OffsetOffUs changed, if valid
func (t TimingParameters) WithOffsetOffUs(v float64) (TimingParameters, error) {
	return t.with(v, func(c *TimingParameters) { c.OffsetOffUs = v })
}

// WithPreOpenUs returns a copy with PreOpenUs changed, if valid
func (t TimingParameters) WithPreOpenUs(v float64) (TimingParameters, error) {
	return t.with(v, func(c *TimingParameters) { c.PreOpenUs = v })
}

// WithPostOpenUs returns a copy with PostOpenUs changed, if valid
func (t TimingParameters) WithPostOpenUs(v float64) (TimingParameters, error) {
	return t.with(v, func(c *TimingParameters) { c.PostOpenUs = v })
}

// WithOpenUs returns a copy with OpenUs changed, if valid
func (t TimingParameters) WithOpenUs(v float64) (TimingParameters, error) {
	return t.with(v, func(c *TimingParameters) { c.OpenUs = v })
}

// WithAlignUs returns a copy with AlignUs changed, if valid
func (t TimingParameters) WithAlignUs(v float64) (TimingParameters, error) {
	return t.with(v, func(c *TimingParameters) { c.AlignUs = v })
}
