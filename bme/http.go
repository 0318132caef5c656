package bme

import (
	"net/http"
	"sync"

	"github.com/nasa-jpl/pulsepicker/generichttp"
)

// HTTPWrapper wraps an SG08p in an HTTP control interface.
//
// Lock is shared with whatever else drives the card, so that a reset is never
// interleaved with a schedule push
type HTTPWrapper struct {
	Card *SG08p

	Lock sync.Locker

	// AfterReset, if not nil, is called with Lock held after a successful
	// reset, to bring the card back to what its user expects
	AfterReset func() error

	// OnError, if not nil, is called with the name of the card operation
	// ("Reset", "SetClockSource") whenever it fails
	OnError func(op string, err error)

	clock ClockSource

	RouteTable generichttp.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured.
// clock is the source the card was last set to
func NewHTTPWrapper(card *SG08p, lock sync.Locker, clock ClockSource) *HTTPWrapper {
	w := &HTTPWrapper{Card: card, Lock: lock, clock: clock}
	w.RouteTable = generichttp.RouteTable{
		{Method: http.MethodPost, Path: "/reset"}:        generichttp.Do(w.reset),
		{Method: http.MethodGet, Path: "/clock-source"}:  generichttp.GetString(w.getClock),
		{Method: http.MethodPost, Path: "/clock-source"}: generichttp.SetString(w.setClock),
		{Method: http.MethodGet, Path: "/status"}:        generichttp.GetJSON(w.status),
	}
	return w
}

// RT satisfies the generichttp.HTTPer interface
func (w *HTTPWrapper) RT() generichttp.RouteTable {
	return w.RouteTable
}

func (w *HTTPWrapper) failed(op string, err error) error {
	if err != nil && w.OnError != nil {
		w.OnError(op, err)
	}
	return err
}

// reset restores the card defaults, then reprograms the clock source last
// selected if it was not the internal one
func (w *HTTPWrapper) reset() error {
	w.Lock.Lock()
	defer w.Lock.Unlock()
	if err := w.failed("Reset", w.Card.Reset()); err != nil {
		return err
	}
	want := w.clock
	w.clock = Internal
	if want != Internal {
		if err := w.failed("SetClockSource", w.Card.SetClockSource(want)); err != nil {
			return err
		}
		w.clock = want
	}
	if w.AfterReset != nil {
		return w.AfterReset()
	}
	return nil
}

func (w *HTTPWrapper) getClock() (string, error) {
	w.Lock.Lock()
	defer w.Lock.Unlock()
	return w.clock.String(), nil
}

func (w *HTTPWrapper) setClock(s string) error {
	src, err := ParseClockSource(s)
	if err != nil {
		return err
	}
	w.Lock.Lock()
	defer w.Lock.Unlock()
	err = w.failed("SetClockSource", w.Card.SetClockSource(src))
	if err == nil {
		w.clock = src
	}
	return err
}

type statusReply struct {
	Word  uint32   `json:"word"`
	Flags []string `json:"flags"`
	Safe  bool     `json:"safe"`
}

func (w *HTTPWrapper) status() (interface{}, error) {
	w.Lock.Lock()
	defer w.Lock.Unlock()
	s := w.Card.StatusFlags()
	return statusReply{Word: uint32(s), Flags: s.Names(), Safe: s.Safe()}, nil
}
