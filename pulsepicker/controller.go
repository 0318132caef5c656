/*Package pulsepicker provides the experimentalist's interface to a pulse
picker: arming it, and setting the timing of the high voltage switches that
select single pulses from a laser pulse train.

Note the overloaded terminology.  Here, as in the lab, "pulse" means an
optical laser pulse, while the delay generator package uses it for the
electronic trigger pulses fed to the Pockels cell driver.  Likewise the two
switch pairs of the head are labelled "on" and "off" even though the optical
state is the XOR of the two.

A Controller is not safe for concurrent use; callers serialize access to it.
HTTPWrapper does so for the HTTP interface.
*/
package pulsepicker

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"math"

	"github.com/nasa-jpl/pulsepicker/bme"
)

// Card is the part of a delay generator the controller drives
type Card interface {
	SetTrigger(useExternalGate bool, inhibitUs float64) error
	SetOutputGates(modes [3]bme.OutputGateMode) error
	SetPulseParameters(params []bme.PulseParameters) error
}

var _ Card = (*bme.SG08p)(nil)

// Mode is the triggering state of the picker
type Mode int

const (
	// Disabled outputs no pulses
	Disabled Mode = iota

	// Gated fires once per external gate signal
	Gated

	// FreeRunning fires on every laser sync trigger, with a minimum period
	FreeRunning
)

func (m Mode) String() string {
	switch m {
	case Disabled:
		return "disabled"
	case Gated:
		return "gated"
	case FreeRunning:
		return "free-running"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MarshalJSON encodes the mode as its name
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// State is the trigger mode and its parameter
type State struct {
	Mode Mode `json:"mode"`

	// HoldoffUs is the inhibit time after a gate, Gated only
	HoldoffUs float64 `json:"holdoffUs"`

	// MinPeriodUs is the minimum time between pulses, FreeRunning only
	MinPeriodUs float64 `json:"minPeriodUs"`
}

// Enabled is true if the picker is armed
func (s State) Enabled() bool {
	return s.Mode != Disabled
}

// DefaultMinPeriodUs is the minimum period used by EnableFree when not told otherwise
const DefaultMinPeriodUs = 10.

// Controller translates timing parameters into a channel schedule and keeps
// the card programmed with it.  It is the single source of truth for the
// card state; the whole schedule is pushed on every change.
type Controller struct {
	card     Card
	times    TimingParameters
	state    State
	schedule Schedule
	msg      *log.Logger
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger makes the controller log state transitions and parameter changes to l
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		c.msg = l
	}
}

// New creates a controller driving card, configures the card for the pulse
// picker head and leaves the outputs disabled.  A nil card runs in simulation
// mode, where nothing is sent anywhere.
//
// allowLongPulses permits optical gates longer than two laser periods, which
// is not sensible for single pulse picking but is for calibration.
func New(card Card, allowLongPulses bool, opts ...Option) (*Controller, error) {
	c := &Controller{
		card:  card,
		times: DefaultTimingParameters(allowLongPulses),
		state: State{Mode: Disabled},
		msg:   log.New(ioutil.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.card == nil {
		c.msg.Println("no delay generator, running in simulation mode")
	}
	if err := c.Restore(); err != nil {
		return nil, err
	}
	return c, nil
}

// Restore programs the whole card configuration from the controller's state:
// output gates, trigger and schedule.  It is the way back after the card was
// reset, e.g. following a hardware error that left it deactivated.
func (c *Controller) Restore() error {
	if c.card != nil {
		// OFF A and B are each driven by an OR of two channels so that the
		// second edge resets them
		err := c.card.SetOutputGates([3]bme.OutputGateMode{bme.Or, bme.Or, bme.Direct})
		if err != nil {
			return err
		}
		external, inhibit := false, 0.
		switch c.state.Mode {
		case Gated:
			external, inhibit = true, c.state.HoldoffUs
		case FreeRunning:
			inhibit = c.state.MinPeriodUs
		}
		if err := c.card.SetTrigger(external, inhibit); err != nil {
			return err
		}
	}
	return c.update()
}

// Ping returns true, for liveness checks
func (c *Controller) Ping() bool {
	return true
}

// Simulated is true when there is no card
func (c *Controller) Simulated() bool {
	return c.card == nil
}

// State returns the current trigger state
func (c *Controller) State() State {
	return c.state
}

// Timing returns the current timing parameters
func (c *Controller) Timing() TimingParameters {
	return c.times
}

// Schedule returns the schedule last pushed to the card, or that would have
// been in simulation mode
func (c *Controller) Schedule() Schedule {
	return c.schedule
}

// Disable stops pulsing
func (c *Controller) Disable() error {
	c.state = State{Mode: Disabled}
	c.msg.Println("disabled")
	return c.update()
}

// checkInhibit rejects trigger inhibit times the card cannot be programmed with
func checkInhibit(name string, us float64) error {
	if math.IsNaN(us) || math.IsInf(us, 0) || us < 0 {
		return bme.ConfigurationError{Msg: fmt.Sprintf("%s must be a finite, non-negative time, not %g us", name, us)}
	}
	return nil
}

// EnableGated arms the picker to fire whenever the external gate input is
// signalled, ignoring further gates for holdoffUs
func (c *Controller) EnableGated(holdoffUs float64) error {
	if err := checkInhibit("holdoff", holdoffUs); err != nil {
		return err
	}
	if c.card != nil {
		if err := c.card.SetTrigger(true, holdoffUs); err != nil {
			return err
		}
	}
	c.state = State{Mode: Gated, HoldoffUs: holdoffUs}
	c.msg.Printf("enabled, gated with %g us holdoff", holdoffUs)
	return c.update()
}

// EnableFree arms the picker to fire whenever the laser sync trigger is
// asserted, no more often than once per minPeriodUs
func (c *Controller) EnableFree(minPeriodUs float64) error {
	if err := checkInhibit("minimum period", minPeriodUs); err != nil {
		return err
	}
	if c.card != nil {
		if err := c.card.SetTrigger(false, minPeriodUs); err != nil {
			return err
		}
	}
	c.state = State{Mode: FreeRunning, MinPeriodUs: minPeriodUs}
	c.msg.Printf("enabled, free running with %g us minimum period", minPeriodUs)
	return c.update()
}

// apply replaces the timing parameters with next if there is no error, and
// pushes the schedule
func (c *Controller) apply(name string, v float64, next TimingParameters, err error) error {
	if err != nil {
		return err
	}
	c.times = next
	c.msg.Printf("%s set to %g us", name, v)
	return c.update()
}

// GetOffsetOnUs returns the ON switch pair skew
func (c *Controller) GetOffsetOnUs() float64 { return c.times.OffsetOnUs }

// SetOffsetOnUs sets the ON switch pair skew
func (c *Controller) SetOffsetOnUs(v float64) error {
	next, err := c.times.WithOffsetOnUs(v)
	return c.apply("offset_on", v, next, err)
}

// GetOffsetOffUs returns the OFF switch pair skew
func (c *Controller) GetOffsetOffUs() float64 { return c.times.OffsetOffUs }

// SetOffsetOffUs sets the OFF switch pair skew
func (c *Controller) SetOffsetOffUs(v float64) error {
	next, err := c.times.WithOffsetOffUs(v)
	return c.apply("offset_off", v, next, err)
}

// GetPreOpenUs returns the OFF to ON wait
func (c *Controller) GetPreOpenUs() float64 { return c.times.PreOpenUs }

// SetPreOpenUs sets the OFF to ON wait
func (c *Controller) SetPreOpenUs(v float64) error {
	next, err := c.times.WithPreOpenUs(v)
	return c.apply("pre_open", v, next, err)
}

// GetPostOpenUs returns the ON to second OFF wait
func (c *Controller) GetPostOpenUs() float64 { return c.times.PostOpenUs }

// SetPostOpenUs sets the ON to second OFF wait
func (c *Controller) SetPostOpenUs(v float64) error {
	next, err := c.times.WithPostOpenUs(v)
	return c.apply("post_open", v, next, err)
}

// GetOpenUs returns the optical gate duration
func (c *Controller) GetOpenUs() float64 { return c.times.OpenUs }

// SetOpenUs sets the optical gate duration
func (c *Controller) SetOpenUs(v float64) error {
	next, err := c.times.WithOpenUs(v)
	return c.apply("open", v, next, err)
}

// GetAlignUs returns the shift of the ON pair
func (c *Controller) GetAlignUs() float64 { return c.times.AlignUs }

// SetAlignUs sets the shift of the ON pair
func (c *Controller) SetAlignUs(v float64) error {
	next, err := c.times.WithAlignUs(v)
	return c.apply("align", v, next, err)
}

// update recomputes the schedule and pushes it.  When disabled the all-off
// schedule is pushed regardless of the parameters.
func (c *Controller) update() error {
	enabled := c.state.Enabled()
	if enabled {
		if err := c.times.Validate(); err != nil {
			return err
		}
	}
	s := ComputePulseSchedule(c.times, enabled)
	if c.card != nil {
		if err := c.card.SetPulseParameters(s[:]); err != nil {
			return err
		}
	}
	c.schedule = s
	return nil
}
