package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rhuss/zotgate/pkg/api"
)

// ErrBodyRead is wrapped by errors returned from ReadBody when the body
// stream or the pre-parsed value cannot be turned into text.
var ErrBodyRead = errors.New("reading request body")

// parsedBodyKey is the context key for a pre-parsed request body.
type parsedBodyKey struct{}

// parsedBody distinguishes an attached nil value from no value at all.
type parsedBody struct {
	value any
}

// WithParsedBody returns a context carrying a body value that the hosting
// platform has already materialized. ReadBody prefers it over the stream.
func WithParsedBody(ctx context.Context, body any) context.Context {
	return context.WithValue(ctx, parsedBodyKey{}, parsedBody{value: body})
}

// ParsedBody returns the pre-parsed body attached to ctx, if any.
func ParsedBody(ctx context.Context) (any, bool) {
	pb, ok := ctx.Value(parsedBodyKey{}).(parsedBody)
	return pb.value, ok
}

// ReadBody returns the request body as text.
//
// A pre-parsed body takes precedence and the stream is left untouched:
// strings are used verbatim, byte slices are converted, nil is empty and
// any other value is encoded as JSON. Without one, the stream is read to completion with no
// size limit or decoding. Failures are returned as 500 errors wrapping
// ErrBodyRead so that no partial body ever reaches a handler.
func ReadBody(r *http.Request) (string, error) {
	if v, ok := ParsedBody(r.Context()); ok {
		return stringifyBody(v)
	}

	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", bodyError(err)
	}
	return string(data), nil
}

func stringifyBody(v any) (string, error) {
	switch b := v.(type) {
	case nil:
		return "", nil
	case string:
		return b, nil
	case []byte:
		return string(b), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "", bodyError(err)
	}
	return string(data), nil
}

func bodyError(err error) error {
	return &api.Error{
		Status:  http.StatusInternalServerError,
		Message: api.DefaultMessage,
		Err:     fmt.Errorf("%w: %w", ErrBodyRead, err),
	}
}
