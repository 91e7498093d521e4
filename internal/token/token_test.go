package token

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDIssuer_Unique(t *testing.T) {
	iss := UUIDIssuer{}
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		tok := iss.Issue()
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token issued: %s", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestUUIDIssuer_Opaque(t *testing.T) {
	tok := UUIDIssuer{}.Issue()
	if _, err := uuid.Parse(tok); err != nil {
		t.Fatalf("token is not a valid uuid: %v", err)
	}
}
