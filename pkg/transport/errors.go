package transport

import (
	"net/http"

	"github.com/rhuss/zotgate/pkg/api"
)

// Fixed bodies for requests rejected before a handler runs.
const (
	MessageMethodNotAllowed = "Method Not Allowed"
	MessageNotFound         = "Not Found"
	MessageUnauthorized     = "Unauthorized"
)

// WriteText writes a plain-text response with the given status.
func WriteText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	if body != "" {
		w.Write([]byte(body))
	}
}

// WriteError writes err as a plain-text response: the status carried by
// the error (500 for untagged errors) and the message followed by a
// newline. It returns the status and message that were written.
func WriteError(w http.ResponseWriter, err error) (int, string) {
	status, message, _ := api.StatusFromError(err)
	WriteText(w, status, message+"\n")
	return status, message
}
