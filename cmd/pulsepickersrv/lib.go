package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nasa-jpl/pulsepicker/bme"
	"github.com/nasa-jpl/pulsepicker/generichttp"
	"github.com/nasa-jpl/pulsepicker/pulsepicker"
	"github.com/nasa-jpl/pulsepicker/server/middleware/locker"
)

// Config holds the server setup.  It is populated from defaults, the yaml
// file and PULSEPICKER_* environment variables, in that order
type Config struct {
	// Addr is the address to listen at
	Addr string `koanf:"addr" yaml:"addr"`

	// Endpoint is the path the picker routes are served under, e.g. "/picker".
	// The card routes are served under Endpoint/card
	Endpoint string `koanf:"endpoint" yaml:"endpoint"`

	// Simulation runs without any delay generator; schedules are computed
	// and reported but sent nowhere
	Simulation bool `koanf:"simulation" yaml:"simulation"`

	// Mock drives an in-memory delay generator instead of the vendor SDK
	Mock bool `koanf:"mock" yaml:"mock"`

	// AllowLongPulses permits optical gates longer than two laser periods
	AllowLongPulses bool `koanf:"allow_long_pulses" yaml:"allow_long_pulses"`

	// ClockSource is "internal" or "external-80mhz"
	ClockSource string `koanf:"clock_source" yaml:"clock_source"`
}

// Picker is a running pulse picker: the controller, the card it drives if
// any, and the router serving both
type Picker struct {
	Ctl  *pulsepicker.Controller
	Card *bme.SG08p
	Mux  chi.Router

	// Mock is the in-memory delay generator in mock mode, else nil
	Mock *bme.MockLibrary
}

// mockCallLog bounds the call log of the mock delay generator
const mockCallLog = 1024

// Close releases the card
func (p *Picker) Close() error {
	if p.Card == nil {
		return nil
	}
	return p.Card.Close()
}

// openCard opens the delay generator selected by c, or returns nil in
// simulation mode.  The mock library is returned in mock mode
func openCard(c Config) (*bme.SG08p, *bme.MockLibrary, error) {
	if c.Simulation {
		return nil, nil, nil
	}
	var (
		lib  bme.Library
		mock *bme.MockLibrary
		err  error
	)
	if c.Mock {
		mock = bme.NewMockLibrary()
		mock.MaxCalls = mockCallLog
		lib = mock
	} else {
		lib, err = bme.NewSDK()
		if err != nil {
			return nil, nil, errors.Wrap(err, "loading delay generator SDK")
		}
	}
	card, err := bme.Open(lib)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening delay generator")
	}
	return card, mock, nil
}

// Build opens the hardware described by c and constructs the router.
// Metrics are registered with reg
func Build(c Config, reg prometheus.Registerer) (*Picker, error) {
	clock, err := bme.ParseClockSource(c.ClockSource)
	if err != nil {
		return nil, err
	}
	card, mock, err := openCard(c)
	if err != nil {
		return nil, err
	}
	p := &Picker{Card: card, Mock: mock}

	// a nil *SG08p inside the interface would not read as simulation mode
	var (
		ctlCard pulsepicker.Card
		ic      *pulsepicker.InstrumentedCard
	)
	if card != nil {
		ic, err = pulsepicker.InstrumentCard(card, reg)
		if err != nil {
			p.Close()
			return nil, errors.Wrap(err, "registering metrics")
		}
		if err = card.SetClockSource(clock); err != nil {
			p.Close()
			return nil, errors.Wrap(err, "setting clock source")
		}
		ctlCard = ic
	}
	logger := log.New(os.Stdout, "pulsepicker: ", log.LstdFlags)
	p.Ctl, err = pulsepicker.New(ctlCard, c.AllowLongPulses, pulsepicker.WithLogger(logger))
	if err != nil {
		p.Close()
		return nil, errors.Wrap(err, "configuring pulse picker")
	}

	lock := locker.New()
	pw := pulsepicker.NewHTTPWrapper(p.Ctl)
	locker.Inject(pw, lock)
	httpers := map[string]generichttp.HTTPer{"": pw}
	if card != nil {
		cw := bme.NewHTTPWrapper(card, &pw.Mutex, clock)
		cw.AfterReset = p.Ctl.Restore
		cw.OnError = func(op string, err error) {
			ic.Errors(op).Inc()
			log.Printf("card %s failed: %v\n", op, err)
		}
		httpers["card"] = cw
	}

	root := chi.NewRouter()
	root.Use(middleware.Logger)
	stem := generichttp.SubMuxSanitize(c.Endpoint)
	endpoints := map[string][]string{}
	for sub, h := range httpers {
		r := chi.NewRouter()
		r.Use(lock.Check)
		h.RT().Bind(r)
		path := stem
		if sub != "" {
			path = generichttp.SubMuxSanitize(stem + "/" + sub)
		}
		root.Mount(path, r)
		endpoints[path] = h.RT().Endpoints()
		log.Printf("serving %d routes under %s\n", len(endpoints[path]), path)
	}
	root.Get("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(endpoints)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	if g, ok := reg.(prometheus.Gatherer); ok {
		root.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}
	p.Mux = root
	return p, nil
}
