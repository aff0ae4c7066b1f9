package transport

import (
	"sort"
)

// Handler is one endpoint's business logic. Handle may read and mutate the
// Context and returns a non-nil error to fail the request.
type Handler interface {
	Handle(c *Context) error
}

// HandlerFunc is an adapter that allows using an ordinary function as a
// Handler.
type HandlerFunc func(c *Context) error

// Handle calls f(c).
func (f HandlerFunc) Handle(c *Context) error {
	return f(c)
}

// RouteTable maps exact request paths to handlers. It is immutable after
// construction and safe for concurrent use.
type RouteTable struct {
	routes map[string]Handler
}

// NewRouteTable copies routes into a new table. It panics on a nil handler,
// the same way http.ServeMux does.
func NewRouteTable(routes map[string]Handler) *RouteTable {
	t := &RouteTable{routes: make(map[string]Handler, len(routes))}
	for path, h := range routes {
		if h == nil {
			panic("transport: nil handler for path " + path)
		}
		t.routes[path] = h
	}
	return t
}

// Lookup returns the handler registered for exactly path. There is no
// prefix, parameter or wildcard matching.
func (t *RouteTable) Lookup(path string) (Handler, bool) {
	if t == nil {
		return nil, false
	}
	h, ok := t.routes[path]
	return h, ok
}

// Paths returns the registered paths in sorted order.
func (t *RouteTable) Paths() []string {
	if t == nil {
		return nil
	}
	paths := make([]string, 0, len(t.routes))
	for p := range t.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of registered routes.
func (t *RouteTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.routes)
}
