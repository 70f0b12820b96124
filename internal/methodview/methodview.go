// Package methodview dispatches a single resource path to one handler per
// HTTP method, each wrapped in its own decorator chain.
//
// A View is a builder. Handlers and decorators are registered on it, and
// Build composes every chain exactly once:
//
//	view := methodview.New().
//	    Use(requestScoped).                          // every method
//	    HandleFunc(http.MethodGet, h.Get, requireAuth). // GET only
//	    HandleFunc(http.MethodPost, h.Create)           // undecorated
//
// COMPOSITION ORDER:
// For a method M the served handler is
//
//	use[0](use[1](...(m[0](m[1](...(handler))))))
//
// where use is the class-wide list and m the per-method list. The first
// decorator of each list is the outermost, so it sees the request first. A
// method with no decorators is served by the plain handler.
//
// Per-method lists are keyed by lower-cased method name: "get", "Get" and
// "GET" all address the same chain.
package methodview

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/sakif/podcast-api/internal/respond"
)

// Decorator wraps a handler. It has the same shape as chi middleware, so
// anything written for a router can be used per method.
type Decorator func(http.Handler) http.Handler

// View collects per-method handlers and decorators for one resource.
type View struct {
	handlers  map[string]http.Handler
	perMethod map[string][]Decorator
	shared    []Decorator
}

func New() *View {
	return &View{
		handlers:  make(map[string]http.Handler),
		perMethod: make(map[string][]Decorator),
	}
}

// Use appends class-wide decorators applied to every method.
func (v *View) Use(ds ...Decorator) *View {
	v.shared = append(v.shared, ds...)
	return v
}

// Handle registers h for method, optionally appending per-method decorators.
// Registering the same method twice replaces the handler and keeps the
// decorators collected so far.
func (v *View) Handle(method string, h http.Handler, ds ...Decorator) *View {
	v.handlers[strings.ToUpper(method)] = h
	return v.Decorate(method, ds...)
}

func (v *View) HandleFunc(method string, h http.HandlerFunc, ds ...Decorator) *View {
	return v.Handle(method, h, ds...)
}

// Decorate appends decorators for method.
func (v *View) Decorate(method string, ds ...Decorator) *View {
	if len(ds) == 0 {
		return v
	}
	key := strings.ToLower(method)
	v.perMethod[key] = append(v.perMethod[key], ds...)
	return v
}

// Methods returns the declared methods, sorted, HEAD included when GET is
// declared.
func (v *View) Methods() []string {
	seen := make(map[string]bool, len(v.handlers)+2)
	for m := range v.handlers {
		seen[m] = true
	}
	if seen[http.MethodGet] {
		seen[http.MethodHead] = true
	}
	seen[http.MethodOptions] = true

	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Build composes every chain and returns the dispatching handler. It fails
// when decorators were registered for a method that has no handler, which is
// almost always a typo in the method name.
func (v *View) Build() (http.Handler, error) {
	for key := range v.perMethod {
		if _, ok := v.handlers[strings.ToUpper(key)]; !ok {
			return nil, fmt.Errorf("methodview: decorators registered for %q, which has no handler", key)
		}
	}

	d := &dispatcher{
		routes: make(map[string]http.Handler, len(v.handlers)),
		allow:  strings.Join(v.Methods(), ", "),
	}
	for method, h := range v.handlers {
		h = chain(h, v.perMethod[strings.ToLower(method)])
		d.routes[method] = chain(h, v.shared)
	}
	return d, nil
}

// chain wraps h so that ds[0] ends up outermost.
func chain(h http.Handler, ds []Decorator) http.Handler {
	for i := len(ds) - 1; i >= 0; i-- {
		h = ds[i](h)
	}
	return h
}

type dispatcher struct {
	routes map[string]http.Handler
	allow  string
}

func (d *dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := d.routes[r.Method]; ok {
		h.ServeHTTP(w, r)
		return
	}

	switch r.Method {
	case http.MethodHead:
		if h, ok := d.routes[http.MethodGet]; ok {
			h.ServeHTTP(w, r)
			return
		}
	case http.MethodOptions:
		w.Header().Set("Allow", d.allow)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Allow", d.allow)
	respond.Error(w, http.StatusMethodNotAllowed, "method_not_allowed",
		fmt.Sprintf("method %s is not allowed on this resource", r.Method))
}
