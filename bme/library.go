package bme

// Library is the set of vendor SDK functions used to drive a card.
// Every function except the detection count and the status word read
// returns an SDK status code, zero meaning success.
//
// Production code binds it to the DelayGenerator shared library (see sdk.go,
// built with the bmesdk tag); tests and the server's mock mode use MockLibrary.
type Library interface {
	// ReserveDGData allocates driver-side bookkeeping for count cards
	ReserveDGData(count int) int

	// DetectPCIDelayGenerators returns the number of cards on the PCI bus
	DetectPCIDelayGenerators() (count int, status int)

	// GetPCIDelayGenerator returns the identity of card idx
	GetPCIDelayGenerator(idx int) (id CardIdentity, status int)

	InitializeDG(slotID, productID, idx int) int
	DeactivateDG(idx int) int
	ActivateDG(idx int) int

	// SetGateFunction programs the output combination register
	SetGateFunction(flags uint32, idx int) int

	SetTriggerParameters(p TriggerParameters, idx int) int

	// SetResetWhenDone toggles the automatic output reset after the last delay
	SetResetWhenDone(reset bool, idx int) int

	// ReadDGStatus returns the raw hardware status word
	ReadDGStatus(idx int) uint32

	// SetG08Delay programs one delay channel. channel is the physical index
	SetG08Delay(channel int, d ChannelDelay, idx int) int

	SetG08ClockParameters(p ClockParameters, idx int) int
	SetG08TriggerParameters(p CardTriggerParameters, idx int) int
}

// CardIdentity is what the SDK reports about a detected card
type CardIdentity struct {
	ProductID int
	SlotID    int
	IsMaster  bool
}

// TriggerParameters mirrors the positional arguments of Set_TriggerParameters
type TriggerParameters struct {
	// Terminate50Ohm terminates the trigger input with 50 ohm
	Terminate50Ohm bool

	// InhibitUs is the trigger inhibit time, already scaled by the clock factor
	InhibitUs float64

	// LevelV is the trigger level, [-2.5, 2.5] V
	LevelV float64

	PresetValue uint32

	// GateDivider is zero for a level-sensitive gate
	GateDivider uint32

	GatePositiveEdge bool
	InternalTrigger  bool
	InternalArm      bool
	SoftwareTrigger  bool
	ExternalTrigger  bool
	StopOnPreset     bool

	// ResetWhenDone resets all outputs 2 us after the last delay has elapsed
	ResetWhenDone bool

	// IgnoreGate enables the trigger regardless of the gate input
	IgnoreGate bool
}

// ChannelDelay mirrors the per-channel arguments of Set_G08_Delay
type ChannelDelay struct {
	DelayUs        float64
	WidthUs        float64
	ModuloLength   uint32
	ModuloOffset   uint32
	TriggerSource  uint32
	PositivePulse  bool
	Terminate50Ohm bool
	HighImpedance  bool
	OntoMSBus      bool
	InputPositive  bool
}

// ClockParameters mirrors Set_G08_ClockParameters
type ClockParameters struct {
	ClockEnable       bool
	OscillatorDivider uint32
	TriggerDivider    uint32
	TriggerMultiplier uint32
	ClockSource       uint32
}

// CardTriggerParameters mirrors Set_G08_TriggerParameters
type CardTriggerParameters struct {
	GateTerminate   bool
	GateLevelV      float64
	GateDelayUs     float64
	IgnoreGate      bool
	SynchronizeGate bool
	ForceTriggerUs  float64
	StepBackUs      float64
	BurstCounter    uint32
	Flags           uint32
}
