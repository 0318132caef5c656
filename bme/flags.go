package bme

import "strings"

// StatusFlag is a bit of the hardware status word.
//
// The definitions can be found in the "Programming BME_SG08P3" chapter of the
// BME_G0X manual, "Command register (read)" section.
type StatusFlag uint32

const (
	ChannelAActive StatusFlag = 1 << iota
	ChannelBActive
	ChannelCActive
	ChannelDActive
	ChannelEActive
	ChannelFActive
	PrimaryTriggerActive
	SecondaryTriggerActive
	ForceTriggerActive

	// TerminalCountReached is set once the preset register count is reached
	TerminalCountReached

	// ExternalClockNoTransitions is set when the external clock on the trigger
	// input is in use but no level transitions have been seen for the number
	// of internal clock periods in multipurpose register byte 6
	ExternalClockNoTransitions

	// AllWaitTimesElapsed is set when every wait time of the trigger system has elapsed
	AllWaitTimesElapsed

	// LoadCommandActive is bit 17, bits 12-16 are unused
	LoadCommandActive StatusFlag = 1 << 17
)

var flagNames = []struct {
	f    StatusFlag
	name string
}{
	{ChannelAActive, "channel-a-active"},
	{ChannelBActive, "channel-b-active"},
	{ChannelCActive, "channel-c-active"},
	{ChannelDActive, "channel-d-active"},
	{ChannelEActive, "channel-e-active"},
	{ChannelFActive, "channel-f-active"},
	{PrimaryTriggerActive, "primary-trigger-active"},
	{SecondaryTriggerActive, "secondary-trigger-active"},
	{ForceTriggerActive, "force-trigger-active"},
	{TerminalCountReached, "terminal-count-reached"},
	{ExternalClockNoTransitions, "external-clock-no-transitions"},
	{AllWaitTimesElapsed, "all-wait-times-elapsed"},
	{LoadCommandActive, "load-command-active"},
}

// StatusFlags is a decoded status word
type StatusFlags uint32

// Has returns true if f is set
func (s StatusFlags) Has(f StatusFlag) bool {
	return uint32(s)&uint32(f) != 0
}

// Names lists the set flags, in bit order
func (s StatusFlags) Names() []string {
	out := []string{}
	for _, fn := range flagNames {
		if s.Has(fn.f) {
			out = append(out, fn.name)
		}
	}
	return out
}

func (s StatusFlags) String() string {
	return strings.Join(s.Names(), "|")
}

// Safe is true when the card may be deactivated without cutting a running
// sequence short
func (s StatusFlags) Safe() bool {
	return s.Has(AllWaitTimesElapsed) || !s.Has(PrimaryTriggerActive)
}

// knownFlags masks off the unused bits of a raw status word
func knownFlags(word uint32) StatusFlags {
	var mask uint32
	for _, fn := range flagNames {
		mask |= uint32(fn.f)
	}
	return StatusFlags(word & mask)
}
