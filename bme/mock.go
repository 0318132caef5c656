package bme

import (
	"fmt"
	"sync"
)

// Call is one recorded SDK call
type Call struct {
	Fn   string
	Args []interface{}
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Fn, c.Args)
}

// MockLibrary is a Library that records every call and simulates a single
// BME_SG08p in master mode.  It is concurrent safe.
type MockLibrary struct {
	sync.Mutex

	// Cards is the number of cards DetectPCIDelayGenerators reports
	Cards int

	// Identity is returned by GetPCIDelayGenerator
	Identity CardIdentity

	// StatusWords are returned by ReadDGStatus in order; once drained the
	// last one repeats.  Empty reads as an idle card
	StatusWords []uint32

	// FailOn makes the named function return the given status code
	FailOn map[string]int

	// MaxCalls, if positive, bounds the call log to the most recent calls
	MaxCalls int

	calls  []Call
	active bool
}

// NewMockLibrary returns a MockLibrary with one SG08p in slot 1
func NewMockLibrary() *MockLibrary {
	return &MockLibrary{
		Cards:    1,
		Identity: CardIdentity{ProductID: ProductIDSG08p, SlotID: 1, IsMaster: true},
		FailOn:   map[string]int{},
	}
}

// Calls returns a copy of the call log
func (m *MockLibrary) Calls() []Call {
	m.Lock()
	defer m.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallNames returns the function names of the call log, in order
func (m *MockLibrary) CallNames() []string {
	m.Lock()
	defer m.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.Fn
	}
	return out
}

// ClearCalls empties the call log
func (m *MockLibrary) ClearCalls() {
	m.Lock()
	defer m.Unlock()
	m.calls = nil
}

// Active returns true if the card was last activated rather than deactivated
func (m *MockLibrary) Active() bool {
	m.Lock()
	defer m.Unlock()
	return m.active
}

// record logs a call and returns its programmed status.  The caller holds the lock
func (m *MockLibrary) record(fn string, args ...interface{}) int {
	if m.MaxCalls > 0 && len(m.calls) >= m.MaxCalls {
		n := copy(m.calls, m.calls[len(m.calls)-m.MaxCalls+1:])
		m.calls = m.calls[:n]
	}
	m.calls = append(m.calls, Call{Fn: fn, Args: args})
	return m.FailOn[fn]
}

func (m *MockLibrary) ReserveDGData(count int) int {
	m.Lock()
	defer m.Unlock()
	return m.record("ReserveDGData", count)
}

func (m *MockLibrary) DetectPCIDelayGenerators() (int, int) {
	m.Lock()
	defer m.Unlock()
	return m.Cards, m.record("DetectPCIDelayGenerators")
}

func (m *MockLibrary) GetPCIDelayGenerator(idx int) (CardIdentity, int) {
	m.Lock()
	defer m.Unlock()
	return m.Identity, m.record("GetPCIDelayGenerator", idx)
}

func (m *MockLibrary) InitializeDG(slotID, productID, idx int) int {
	m.Lock()
	defer m.Unlock()
	return m.record("InitializeDG", slotID, productID, idx)
}

func (m *MockLibrary) DeactivateDG(idx int) int {
	m.Lock()
	defer m.Unlock()
	status := m.record("DeactivateDG", idx)
	if status == 0 {
		m.active = false
	}
	return status
}

func (m *MockLibrary) ActivateDG(idx int) int {
	m.Lock()
	defer m.Unlock()
	status := m.record("ActivateDG", idx)
	if status == 0 {
		m.active = true
	}
	return status
}

func (m *MockLibrary) SetGateFunction(flags uint32, idx int) int {
	m.Lock()
	defer m.Unlock()
	return m.record("SetGateFunction", flags, idx)
}

func (m *MockLibrary) SetTriggerParameters(p TriggerParameters, idx int) int {
	m.Lock()
	defer m.Unlock()
	return m.record("SetTriggerParameters", p, idx)
}

func (m *MockLibrary) SetResetWhenDone(reset bool, idx int) int {
	m.Lock()
	defer m.Unlock()
	return m.record("SetResetWhenDone", reset, idx)
}

func (m *MockLibrary) ReadDGStatus(idx int) uint32 {
	m.Lock()
	defer m.Unlock()
	m.record("ReadDGStatus", idx)
	switch len(m.StatusWords) {
	case 0:
		return 0
	case 1:
		return m.StatusWords[0]
	}
	w := m.StatusWords[0]
	m.StatusWords = m.StatusWords[1:]
	return w
}

func (m *MockLibrary) SetG08Delay(channel int, d ChannelDelay, idx int) int {
	m.Lock()
	defer m.Unlock()
	return m.record("SetG08Delay", channel, d, idx)
}

func (m *MockLibrary) SetG08ClockParameters(p ClockParameters, idx int) int {
	m.Lock()
	defer m.Unlock()
	return m.record("SetG08ClockParameters", p, idx)
}

func (m *MockLibrary) SetG08TriggerParameters(p CardTriggerParameters, idx int) int {
	m.Lock()
	defer m.Unlock()
	return m.record("SetG08TriggerParameters", p, idx)
}

var _ Library = (*MockLibrary)(nil)
