package transport

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRouteTable(t *testing.T) {
	noop := HandlerFunc(func(*Context) error { return nil })
	table := NewRouteTable(map[string]Handler{
		"/web":    noop,
		"/search": noop,
		"/export": noop,
	})

	if table.Len() != 3 {
		t.Errorf("Len() = %d, want 3", table.Len())
	}
	if diff := cmp.Diff([]string{"/export", "/search", "/web"}, table.Paths()); diff != "" {
		t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
	}

	for _, path := range []string{"/web", "/search", "/export"} {
		if _, ok := table.Lookup(path); !ok {
			t.Errorf("Lookup(%q) missed", path)
		}
	}
	for _, path := range []string{"/web/", "/WEB", "/", "/import", "/web/extra"} {
		if _, ok := table.Lookup(path); ok {
			t.Errorf("Lookup(%q) matched, want exact matching only", path)
		}
	}
}

func TestRouteTableCopiesInput(t *testing.T) {
	noop := HandlerFunc(func(*Context) error { return nil })
	routes := map[string]Handler{"/web": noop}
	table := NewRouteTable(routes)
	routes["/search"] = noop

	if _, ok := table.Lookup("/search"); ok {
		t.Error("route added after construction is visible")
	}
}

func TestNilRouteTable(t *testing.T) {
	var table *RouteTable
	if _, ok := table.Lookup("/web"); ok {
		t.Error("nil table matched a path")
	}
	if table.Paths() != nil || table.Len() != 0 {
		t.Error("nil table is not empty")
	}
}

func TestRouteTableNilHandlerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewRouteTable with a nil handler did not panic")
		}
	}()
	NewRouteTable(map[string]Handler{"/web": nil})
}
