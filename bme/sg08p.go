package bme

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
)

const (
	// ProductIDSG08p is the product id the SDK reports for a BME_SG08p
	ProductIDSG08p = 46

	// ClockFactor scales user microseconds to what the card is programmed
	// with.  The card runs at 4x the clock its timing is calibrated against
	// and the SDK does not rescale delays by itself.
	ClockFactor = 4

	// channelAIdx is the SDK channel index of output A; 0 and 1 are the
	// trigger and gate channels
	channelAIdx = 2

	// dgIdx is the SDK index of the only supported card
	dgIdx = 0
)

// gate function register bits, an OR and an AND bit per adjacent channel pair.
// both set puts the pair into XOR pulse mode
const (
	gateOrAB  uint32 = 0x10000
	gateAndAB uint32 = 0x20000
	gateOrCD  uint32 = 0x40000
	gateAndCD uint32 = 0x80000
	gateOrEF  uint32 = 0x100000
	gateAndEF uint32 = 0x200000
)

var (
	// ErrAlreadyOpen is generated when a second card handle is requested in
	// the same process
	ErrAlreadyOpen = errors.New("bme: a delay generator is already open in this process")

	// ErrNoCard is generated when no card is present on the bus
	ErrNoCard = Error{Msg: "No PCI delay generator detected"}

	// ErrMultipleCards is generated when more than one card is present on the bus
	ErrMultipleCards = Error{Msg: "More than one PCI delay generator detected; currently not supported"}

	// ErrNotMaster is generated when the card is not jumpered to master mode
	ErrNotMaster = Error{Msg: "Detected delay generator is not set to master mode"}

	// the SDK keeps global state, so only one handle may exist at a time
	openMu sync.Mutex
	isOpen bool
)

// SG08p is a BME_SG08p delay generator card
type SG08p struct {
	lib Library
	idx int

	// Poll is the backoff used while waiting for a running sequence to finish
	// before deactivating.  It is never given a deadline.
	Poll func() backoff.BackOff
}

// Open detects the single card on the PCI bus, initializes it and resets it
// to the default configuration.
//
// Exactly one BME_SG08p in master mode must be installed.  Only one SG08p may
// be open per process; Close releases it.
func Open(lib Library) (*SG08p, error) {
	openMu.Lock()
	defer openMu.Unlock()
	if isOpen {
		return nil, ErrAlreadyOpen
	}

	if err := checkStatus(lib.ReserveDGData(1)); err != nil {
		return nil, err
	}

	// the odd one out, the count is returned and the status is an out param
	n, status := lib.DetectPCIDelayGenerators()
	if err := checkStatus(status); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, ErrNoCard
	}
	if n > 1 {
		return nil, ErrMultipleCards
	}

	id, status := lib.GetPCIDelayGenerator(dgIdx)
	if err := checkStatus(status); err != nil {
		return nil, err
	}
	if id.ProductID != ProductIDSG08p {
		return nil, Error{Msg: fmt.Sprintf("Detected delay generator with invalid product id %d; currently only BME_SG08p is supported", id.ProductID)}
	}
	if !id.IsMaster {
		return nil, ErrNotMaster
	}
	if err := checkStatus(lib.InitializeDG(id.SlotID, id.ProductID, dgIdx)); err != nil {
		return nil, err
	}

	card := &SG08p{lib: lib, idx: dgIdx, Poll: defaultPoll}
	if err := card.Reset(); err != nil {
		return nil, err
	}
	isOpen = true
	return card, nil
}

// Close releases the process-wide claim on the card.  The hardware is left
// as-is and the SDK is not unloaded.
func (c *SG08p) Close() error {
	openMu.Lock()
	defer openMu.Unlock()
	isOpen = false
	return nil
}

func defaultPoll() backoff.BackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     10 * time.Microsecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         time.Millisecond,
		MaxElapsedTime:      0, // no deadline
		Clock:               backoff.SystemClock}
}

// Reset restores the default configuration: internal clock, externally gated
// trigger with no inhibit, no gate functions, and all channels disabled
func (c *SG08p) Reset() error {
	if err := c.deactivate(); err != nil {
		return err
	}
	if err := c.setClockParams(Internal); err != nil {
		return err
	}
	if err := c.setTriggerParams(true, 0); err != nil {
		return err
	}
	err := checkStatus(c.lib.SetG08TriggerParameters(CardTriggerParameters{
		GateTerminate:   true,
		GateLevelV:      1.,
		GateDelayUs:     0.,
		IgnoreGate:      true,  // ignore gate inputs while inhibited, no memoizing
		SynchronizeGate: false, // would use the pulse width for the secondary trigger
		ForceTriggerUs:  0.,
		StepBackUs:      0.,
		BurstCounter:    1,    // 0 breaks external triggering
		Flags:           0xfc, // manual UI defaults
	}, c.idx))
	if err != nil {
		return err
	}
	if err := checkStatus(c.lib.SetGateFunction(0, c.idx)); err != nil {
		return err
	}
	for i := 0; i < ChannelCount; i++ {
		if err := c.setDelayChannel(i, PulseParameters{}); err != nil {
			return err
		}
	}
	return checkStatus(c.lib.ActivateDG(c.idx))
}

// SetClockSource selects the main clock
func (c *SG08p) SetClockSource(src ClockSource) error {
	if _, err := clockSourceCode(src); err != nil {
		return err
	}
	if err := c.deactivate(); err != nil {
		return err
	}
	if err := c.setClockParams(src); err != nil {
		return err
	}
	return checkStatus(c.lib.ActivateDG(c.idx))
}

func clockSourceCode(src ClockSource) (uint32, error) {
	// 1: crystal, 2: trigger in, 3: trigger in with crystal fallback, 4: master/slave bus
	switch src {
	case Internal:
		return 1, nil
	case External80MHz:
		return 2, nil
	default:
		return 0, ConfigurationError{fmt.Sprintf("unrecognised clock source %d", int(src))}
	}
}

func (c *SG08p) setClockParams(src ClockSource) error {
	code, err := clockSourceCode(src)
	if err != nil {
		return err
	}
	return checkStatus(c.lib.SetG08ClockParameters(ClockParameters{
		ClockEnable:       true,
		OscillatorDivider: 16 / ClockFactor, // 160 MHz base
		TriggerDivider:    8 / ClockFactor,  // 80 MHz input assumed
		TriggerMultiplier: 1,
		ClockSource:       code,
	}, c.idx))
}

// SetTrigger configures triggering on the positive edge of the trigger input.
// If useExternalGate is false, the trigger is enabled regardless of the gate
// input.  inhibitUs is the minimum time between triggers, microseconds.
func (c *SG08p) SetTrigger(useExternalGate bool, inhibitUs float64) error {
	if err := c.deactivate(); err != nil {
		return err
	}
	if err := c.setTriggerParams(useExternalGate, inhibitUs); err != nil {
		return err
	}
	return checkStatus(c.lib.ActivateDG(c.idx))
}

func (c *SG08p) setTriggerParams(useExternalGate bool, inhibitUs float64) error {
	return checkStatus(c.lib.SetTriggerParameters(TriggerParameters{
		Terminate50Ohm:   true,
		InhibitUs:        inhibitUs * ClockFactor,
		LevelV:           0.,
		PresetValue:      0,
		GateDivider:      1,
		GatePositiveEdge: true,
		InternalTrigger:  true,
		InternalArm:      false,
		SoftwareTrigger:  false,
		ExternalTrigger:  false, // the trigger input carries the clock
		StopOnPreset:     false,
		ResetWhenDone:    true,
		IgnoreGate:       !useExternalGate,
	}, c.idx))
}

// GateFlags computes the gate function register word for the channel pairs
// AB, CD and EF
func GateFlags(modes [3]OutputGateMode) (uint32, error) {
	bits := [3][2]uint32{
		{gateOrAB, gateAndAB},
		{gateOrCD, gateAndCD},
		{gateOrEF, gateAndEF},
	}
	var flags uint32
	for i, m := range modes {
		switch m {
		case Direct:
		case Or:
			flags |= bits[i][0]
		case And:
			flags |= bits[i][1]
		case Xor:
			flags |= bits[i][0] | bits[i][1]
		default:
			return 0, ConfigurationError{fmt.Sprintf("unrecognised output gate mode %d for pair %d", int(m), i)}
		}
	}
	return flags, nil
}

// SetOutputGates sets the combination mode of the channel pairs AB, CD and EF
func (c *SG08p) SetOutputGates(modes [3]OutputGateMode) error {
	flags, err := GateFlags(modes)
	if err != nil {
		return err
	}
	if err := c.deactivate(); err != nil {
		return err
	}
	if err := checkStatus(c.lib.SetGateFunction(flags, c.idx)); err != nil {
		return err
	}
	return checkStatus(c.lib.ActivateDG(c.idx))
}

// SetPulseParameters programs all channels, A to F.  Exactly ChannelCount
// entries must be given.
func (c *SG08p) SetPulseParameters(params []PulseParameters) error {
	if len(params) != ChannelCount {
		return ConfigurationError{fmt.Sprintf("expected pulse parameters for each of the %d channels, not %d", ChannelCount, len(params))}
	}
	if err := c.deactivate(); err != nil {
		return err
	}
	for i, p := range params {
		if err := c.setDelayChannel(i, p); err != nil {
			return err
		}
	}
	return checkStatus(c.lib.ActivateDG(c.idx))
}

func (c *SG08p) setDelayChannel(i int, p PulseParameters) error {
	var src uint32
	if p.Enabled {
		src = 0x1 // local primary trigger
	}
	return checkStatus(c.lib.SetG08Delay(channelAIdx+i, ChannelDelay{
		DelayUs:        p.DelayUs * ClockFactor,
		WidthUs:        p.WidthUs * ClockFactor,
		ModuloLength:   1,
		ModuloOffset:   0,
		TriggerSource:  src,
		PositivePulse:  true,
		Terminate50Ohm: false, // the head is a 50 ohm sink
		HighImpedance:  false,
		OntoMSBus:      false,
		InputPositive:  true, // ignored in output mode
	}, c.idx))
}

// StatusFlags reads and decodes the hardware status word
func (c *SG08p) StatusFlags() StatusFlags {
	return knownFlags(c.lib.ReadDGStatus(c.idx))
}

// deactivate stops the card without interrupting a sequence in flight, as
// per "Modifying Parameters Synchronuously" in the BME_G0X help.
// The automatic reset is held off while waiting so the outputs do not drop
// under a running sequence.
func (c *SG08p) deactivate() error {
	if err := checkStatus(c.lib.SetResetWhenDone(false, c.idx)); err != nil {
		return err
	}
	op := func() error {
		if !c.StatusFlags().Safe() {
			return errSequenceRunning
		}
		return nil
	}
	if err := backoff.Retry(op, c.Poll()); err != nil {
		return err
	}
	if err := checkStatus(c.lib.DeactivateDG(c.idx)); err != nil {
		return err
	}
	return checkStatus(c.lib.SetResetWhenDone(true, c.idx))
}

var errSequenceRunning = errors.New("bme: sequence running")
