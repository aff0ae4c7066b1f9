package transport

import (
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rhuss/zotgate/pkg/api"
)

func TestNewContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/web?url=https%3A%2F%2Fexample.com&single=1", nil)
	r.Header.Set("Content-Type", "text/plain")
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	w := httptest.NewRecorder()

	c := NewContext(r, "https://example.com", w)

	if c.Method != http.MethodPost {
		t.Errorf("Method = %q, want POST", c.Method)
	}
	if c.Path != "/web" {
		t.Errorf("Path = %q, want /web", c.Path)
	}
	if c.URL != "/web?url=https%3A%2F%2Fexample.com&single=1" {
		t.Errorf("URL = %q", c.URL)
	}
	if got := c.Query.Get("url"); got != "https://example.com" {
		t.Errorf("Query[url] = %q, want https://example.com", got)
	}
	if diff := cmp.Diff(c.Query, c.Request.Query); diff != "" {
		t.Errorf("request query differs from context query (-ctx +req):\n%s", diff)
	}
	if c.Request.Body != "https://example.com" {
		t.Errorf("Request.Body = %q", c.Request.Body)
	}
	if c.Request.IP != "203.0.113.7" {
		t.Errorf("Request.IP = %q, want 203.0.113.7", c.Request.IP)
	}
	if got := c.RequestHeader("content-type"); got != "text/plain" {
		t.Errorf("RequestHeader(content-type) = %q, want text/plain", got)
	}
	if c.Status() != http.StatusOK {
		t.Errorf("Status() = %d, want 200", c.Status())
	}
	if c.Body() != nil {
		t.Errorf("Body() = %v, want nil", c.Body())
	}
	if c.Context() != r.Context() {
		t.Error("Context() does not return the request context")
	}
}

func TestContextStatusAndBody(t *testing.T) {
	c := NewContext(httptest.NewRequest(http.MethodPost, "/search", nil), "", httptest.NewRecorder())

	c.SetStatus(201)
	c.SetBody(map[string]int{"n": 1})
	if c.Status() != 201 {
		t.Errorf("Status() = %d, want 201", c.Status())
	}
	if diff := cmp.Diff(map[string]int{"n": 1}, c.Body()); diff != "" {
		t.Errorf("Body() mismatch (-want +got):\n%s", diff)
	}

	c.SetStatus(0)
	if c.Status() != http.StatusOK {
		t.Errorf("Status() with zero = %d, want 200", c.Status())
	}

	var zero Context
	if zero.Context() == nil {
		t.Error("zero Context returned a nil context.Context")
	}
}

func TestSetHeader(t *testing.T) {
	w := httptest.NewRecorder()
	c := NewContext(httptest.NewRequest(http.MethodPost, "/web", nil), "", w)

	c.SetHeader("Link", "<a>; rel=next")
	if got := w.Header().Get("Link"); got != "<a>; rel=next" {
		t.Errorf("live header Link = %q, want it written immediately", got)
	}

	c.SetHeader("Link", "<b>; rel=next")
	if got := w.Header().Values("Link"); len(got) != 1 || got[0] != "<b>; rel=next" {
		t.Errorf("live header Link = %v, want only the last value", got)
	}
	if got := c.ResponseHeader("link"); got != "<b>; rel=next" {
		t.Errorf("ResponseHeader(link) = %q", got)
	}

	copied := c.ResponseHeaders()
	copied.Set("Link", "mutated")
	if got := c.ResponseHeader("Link"); got != "<b>; rel=next" {
		t.Errorf("ResponseHeaders() is not a copy, got %q", got)
	}

	c.Seal()
	c.SetHeader("X-Late", "1")
	if got := w.Header().Get("X-Late"); got != "" {
		t.Errorf("header set after Seal reached the wire: %q", got)
	}
	if got := c.ResponseHeader("X-Late"); got != "" {
		t.Errorf("header set after Seal was recorded: %q", got)
	}
}

func TestIsContentType(t *testing.T) {
	tests := []struct {
		header string
		types  []string
		want   bool
	}{
		{"application/json", []string{"json"}, true},
		{"application/json; charset=utf-8", []string{"application/json"}, true},
		{"Application/JSON", []string{"application/json"}, true},
		{"text/plain", []string{"json", "text/plain"}, true},
		{"text/plain", []string{"json"}, false},
		{"", []string{"json"}, false},
		{"application/json", nil, false},
		{"application/json", []string{""}, false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPost, "/import", nil)
		if tt.header != "" {
			r.Header.Set("Content-Type", tt.header)
		}
		c := NewContext(r, "", httptest.NewRecorder())
		if got := c.IsContentType(tt.types...); got != tt.want {
			t.Errorf("IsContentType(%q, %v) = %v, want %v", tt.header, tt.types, got, tt.want)
		}
	}
}

func TestMediaType(t *testing.T) {
	tests := map[string]string{
		"application/json; charset=utf-8": "application/json",
		" Text/Plain ":                    "text/plain",
		"":                                "",
	}
	for in, want := range tests {
		if got := MediaType(in); got != want {
			t.Errorf("MediaType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{name: "forwarded single", forwarded: "198.51.100.4", remoteAddr: "10.0.0.1:5000", want: "198.51.100.4"},
		{name: "forwarded list", forwarded: " 198.51.100.4 , 10.0.0.2", remoteAddr: "10.0.0.1:5000", want: "198.51.100.4"},
		{name: "empty first entry", forwarded: ", 10.0.0.2", remoteAddr: "10.0.0.1:5000", want: "10.0.0.1"},
		{name: "remote addr", remoteAddr: "192.0.2.9:1234", want: "192.0.2.9"},
		{name: "remote addr ipv6", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "remote addr without port", remoteAddr: "192.0.2.9", want: "192.0.2.9"},
		{name: "nothing", want: "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/web", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAssert(t *testing.T) {
	var nilMap map[string]int
	var nilPtr *int
	one := 1

	tests := []struct {
		name  string
		value any
		falsy bool
	}{
		{"nil", nil, true},
		{"false", false, true},
		{"true", true, false},
		{"zero int", 0, true},
		{"int", 3, false},
		{"zero uint", uint8(0), true},
		{"zero float", 0.0, true},
		{"NaN", math.NaN(), true},
		{"float", 0.5, false},
		{"empty string", "", true},
		{"string", "x", false},
		{"nil map", nilMap, true},
		{"empty map", map[string]int{}, false},
		{"nil pointer", nilPtr, true},
		{"pointer", &one, false},
		{"empty slice", []string{}, false},
		{"struct", struct{}{}, false},
	}

	c := NewContext(httptest.NewRequest(http.MethodPost, "/web", nil), "", httptest.NewRecorder())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Assert(tt.value, http.StatusBadRequest, "bad", "input")
			if (err != nil) != tt.falsy {
				t.Fatalf("Assert(%v) error = %v, want falsy %v", tt.value, err, tt.falsy)
			}
			if err == nil {
				return
			}
			var apiErr *api.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("Assert error is %T, want *api.Error", err)
			}
			if apiErr.Status != http.StatusBadRequest || apiErr.Message != "bad input" {
				t.Errorf("Assert error = %d %q, want 400 \"bad input\"", apiErr.Status, apiErr.Message)
			}
		})
	}
}

func TestAssertWithoutMessage(t *testing.T) {
	c := NewContext(httptest.NewRequest(http.MethodPost, "/web", nil), "", httptest.NewRecorder())
	err := c.Assert("", http.StatusNotImplemented)
	status, message, tagged := api.StatusFromError(err)
	if status != 501 || message != "Not Implemented" || !tagged {
		t.Errorf("StatusFromError() = %d %q %v, want 501 \"Not Implemented\" true", status, message, tagged)
	}
}

func TestFail(t *testing.T) {
	c := NewContext(httptest.NewRequest(http.MethodPost, "/web", nil), "", httptest.NewRecorder())
	err := c.Fail(http.StatusUnprocessableEntity, "no translators")
	status, message, _ := api.StatusFromError(err)
	if status != 422 || message != "no translators" {
		t.Errorf("Fail() = %d %q, want 422 \"no translators\"", status, message)
	}
}
