package pulsepicker

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nasa-jpl/pulsepicker/bme"
)

var channelNames = [bme.ChannelCount]string{"a", "b", "c", "d", "e", "f"}

// InstrumentedCard is a Card that records what passes through it as
// Prometheus metrics
type InstrumentedCard struct {
	Card

	pushes   prometheus.Counter
	triggers prometheus.Counter
	errors   *prometheus.CounterVec
	delay    *prometheus.GaugeVec
	enabled  *prometheus.GaugeVec
	inhibit  prometheus.Gauge
}

// InstrumentCard wraps card and registers its metrics with reg
func InstrumentCard(card Card, reg prometheus.Registerer) (*InstrumentedCard, error) {
	ic := &InstrumentedCard{
		Card: card,
		pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pulsepicker",
			Name:      "schedule_pushes_total",
			Help:      "Number of channel schedules sent to the delay generator.",
		}),
		triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pulsepicker",
			Name:      "trigger_configurations_total",
			Help:      "Number of times the delay generator trigger was reprogrammed.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pulsepicker",
			Name:      "card_errors_total",
			Help:      "Errors returned by the delay generator, by operation.",
		}, []string{"op"}),
		delay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pulsepicker",
			Name:      "channel_delay_microseconds",
			Help:      "Delay of each channel in the last schedule pushed.",
		}, []string{"channel"}),
		enabled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pulsepicker",
			Name:      "channel_enabled",
			Help:      "1 if the channel was enabled in the last schedule pushed.",
		}, []string{"channel"}),
		inhibit: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pulsepicker",
			Name:      "trigger_inhibit_microseconds",
			Help:      "Trigger inhibit time last programmed.",
		}),
	}
	for _, c := range []prometheus.Collector{ic.pushes, ic.triggers, ic.errors, ic.delay, ic.enabled, ic.inhibit} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return ic, nil
}

func opLabel(op string) string {
	return strings.ToLower(op)
}

// SetTrigger passes through to the card and counts the call
func (ic *InstrumentedCard) SetTrigger(useExternalGate bool, inhibitUs float64) error {
	err := ic.Card.SetTrigger(useExternalGate, inhibitUs)
	if err != nil {
		ic.errors.WithLabelValues(opLabel("SetTrigger")).Inc()
		return err
	}
	ic.triggers.Inc()
	ic.inhibit.Set(inhibitUs)
	return nil
}

// SetOutputGates passes through to the card
func (ic *InstrumentedCard) SetOutputGates(modes [3]bme.OutputGateMode) error {
	err := ic.Card.SetOutputGates(modes)
	if err != nil {
		ic.errors.WithLabelValues(opLabel("SetOutputGates")).Inc()
	}
	return err
}

// SetPulseParameters passes through to the card and exports the schedule
func (ic *InstrumentedCard) SetPulseParameters(params []bme.PulseParameters) error {
	err := ic.Card.SetPulseParameters(params)
	if err != nil {
		ic.errors.WithLabelValues(opLabel("SetPulseParameters")).Inc()
		return err
	}
	ic.pushes.Inc()
	for i, p := range params {
		if i >= len(channelNames) {
			break
		}
		ic.delay.WithLabelValues(channelNames[i]).Set(p.DelayUs)
		en := 0.
		if p.Enabled {
			en = 1
		}
		ic.enabled.WithLabelValues(channelNames[i]).Set(en)
	}
	return nil
}

// Pushes is the counter of successful schedule pushes
func (ic *InstrumentedCard) Pushes() prometheus.Counter { return ic.pushes }

// TriggerConfigurations is the counter of successful trigger programmings
func (ic *InstrumentedCard) TriggerConfigurations() prometheus.Counter { return ic.triggers }

// Errors is the error counter of one operation, named in lower case
func (ic *InstrumentedCard) Errors(op string) prometheus.Counter {
	return ic.errors.WithLabelValues(opLabel(op))
}

// ChannelDelay is the delay gauge of a channel, "a" to "f"
func (ic *InstrumentedCard) ChannelDelay(ch string) prometheus.Gauge {
	return ic.delay.WithLabelValues(ch)
}

// ChannelEnabled is the enabled gauge of a channel, "a" to "f"
func (ic *InstrumentedCard) ChannelEnabled(ch string) prometheus.Gauge {
	return ic.enabled.WithLabelValues(ch)
}
