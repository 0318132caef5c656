package pulsepicker

import "github.com/nasa-jpl/pulsepicker/bme"

// Schedule is the programming of the six delay generator channels.
//
// The channels are wired to the pulse picker head as
//  A: OFF A
//  B: OFF A, second edge
//  C: OFF B
//  D: OFF B, second edge
//  E: ON A
//  F: ON B
type Schedule [bme.ChannelCount]bme.PulseParameters

// splitNeg puts the magnitude of a skew on channel A if it is negative,
// else on channel B
func splitNeg(x float64) (a, b float64) {
	if x < 0 {
		return -x, 0
	}
	return 0, x
}

// ComputePulseSchedule converts timing parameters into channel programming.
// If enabled is false, every channel is disabled with zero delay and width,
// whatever t holds.
//
// All widths are zero; each channel fires a single edge and the head derives
// the switch transitions from the relative timing of the edges.
func ComputePulseSchedule(t TimingParameters, enabled bool) Schedule {
	var s Schedule
	if !enabled {
		return s
	}
	offA, offB := splitNeg(t.OffsetOffUs)
	onA, onB := splitNeg(t.OffsetOnUs)
	openAt := t.PreOpenUs + t.AlignUs
	reset := t.PreOpenUs + t.PostOpenUs

	s[0] = bme.PulseParameters{Enabled: true, DelayUs: offA}
	s[1] = bme.PulseParameters{Enabled: true, DelayUs: offA + reset}
	s[2] = bme.PulseParameters{Enabled: true, DelayUs: offB}
	s[3] = bme.PulseParameters{Enabled: true, DelayUs: offB + reset}
	s[4] = bme.PulseParameters{Enabled: true, DelayUs: onA + openAt - t.OpenUs/2}
	s[5] = bme.PulseParameters{Enabled: true, DelayUs: onB + openAt + t.OpenUs/2}
	return s
}
