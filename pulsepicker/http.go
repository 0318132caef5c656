package pulsepicker

import (
	"net/http"
	"sync"

	"github.com/nasa-jpl/pulsepicker/generichttp"
)

// HTTPWrapper wraps a Controller in an HTTP route table.  Every handler holds
// a lock for the duration of the call, so requests reach the controller and
// the card one at a time
type HTTPWrapper struct {
	sync.Mutex

	Ctl *Controller

	RouteTable generichttp.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(ctl *Controller) *HTTPWrapper {
	w := &HTTPWrapper{Ctl: ctl}
	rt := generichttp.RouteTable{
		{Method: http.MethodGet, Path: "/ping"}:          generichttp.GetBool(w.ping),
		{Method: http.MethodPost, Path: "/disable"}:      generichttp.Do(w.disable),
		{Method: http.MethodPost, Path: "/enable-gated"}: generichttp.SetFloatDefault(0, w.enableGated),
		{Method: http.MethodPost, Path: "/enable-free"}:  generichttp.SetFloatDefault(DefaultMinPeriodUs, w.enableFree),
		{Method: http.MethodGet, Path: "/state"}:         generichttp.GetJSON(w.state),
		{Method: http.MethodGet, Path: "/timing"}:        generichttp.GetJSON(w.timing),
		{Method: http.MethodGet, Path: "/schedule"}:      generichttp.GetJSON(w.schedule),
	}
	fields := []struct {
		path string
		get  func() float64
		set  func(float64) error
	}{
		{"/offset-on", ctl.GetOffsetOnUs, ctl.SetOffsetOnUs},
		{"/offset-off", ctl.GetOffsetOffUs, ctl.SetOffsetOffUs},
		{"/pre-open", ctl.GetPreOpenUs, ctl.SetPreOpenUs},
		{"/post-open", ctl.GetPostOpenUs, ctl.SetPostOpenUs},
		{"/open", ctl.GetOpenUs, ctl.SetOpenUs},
		{"/align", ctl.GetAlignUs, ctl.SetAlignUs},
	}
	for _, f := range fields {
		rt[generichttp.MethodPath{Method: http.MethodGet, Path: f.path}] = generichttp.GetFloat(w.getter(f.get))
		rt[generichttp.MethodPath{Method: http.MethodPost, Path: f.path}] = generichttp.SetFloat(w.setter(f.set))
	}
	w.RouteTable = rt
	return w
}

// RT satisfies the generichttp.HTTPer interface
func (w *HTTPWrapper) RT() generichttp.RouteTable {
	return w.RouteTable
}

func (w *HTTPWrapper) getter(fcn func() float64) func() (float64, error) {
	return func() (float64, error) {
		w.Lock()
		defer w.Unlock()
		return fcn(), nil
	}
}

func (w *HTTPWrapper) setter(fcn func(float64) error) func(float64) error {
	return func(f float64) error {
		w.Lock()
		defer w.Unlock()
		return fcn(f)
	}
}

func (w *HTTPWrapper) ping() (bool, error) {
	return w.Ctl.Ping(), nil
}

func (w *HTTPWrapper) disable() error {
	w.Lock()
	defer w.Unlock()
	return w.Ctl.Disable()
}

func (w *HTTPWrapper) enableGated(holdoffUs float64) error {
	w.Lock()
	defer w.Unlock()
	return w.Ctl.EnableGated(holdoffUs)
}

func (w *HTTPWrapper) enableFree(minPeriodUs float64) error {
	w.Lock()
	defer w.Unlock()
	return w.Ctl.EnableFree(minPeriodUs)
}

func (w *HTTPWrapper) state() (interface{}, error) {
	w.Lock()
	defer w.Unlock()
	return w.Ctl.State(), nil
}

func (w *HTTPWrapper) timing() (interface{}, error) {
	w.Lock()
	defer w.Unlock()
	return w.Ctl.Timing(), nil
}

func (w *HTTPWrapper) schedule() (interface{}, error) {
	w.Lock()
	defer w.Unlock()
	return w.Ctl.Schedule(), nil
}
