package noop

import (
	"context"
	"net/http"
	"testing"

	"github.com/rhuss/zotgate/pkg/auth"
)

func TestAlwaysAnonymous(t *testing.T) {
	r, _ := http.NewRequest("POST", "/search", nil)
	r.Header.Set("Authorization", "Bearer ignored")

	result := (&Authenticator{}).Authenticate(context.Background(), r)
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %v, want Yes", result.Decision)
	}
	if result.Identity.Subject != "anonymous" {
		t.Errorf("Subject = %q, want anonymous", result.Identity.Subject)
	}
}
