package cloudflare

import (
	"strings"
	"testing"
)

func TestEscapeKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"plain", "mykey", "mykey"},
		{"slash becomes %2F", "users/42/profile", "users%2F42%2Fprofile"},
		{"space", "my key", "my%20key"},
		{"query characters survive", "a?b=c", "a%3Fb=c"},
		{"unicode", "kulcs/ékezet", "kulcs%2F%C3%A9kezet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeKey(tt.key)
			if got != tt.want {
				t.Errorf("EscapeKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
			if strings.Contains(got, "/") {
				t.Errorf("EscapeKey(%q) = %q still contains a path separator", tt.key, got)
			}

			back, err := UnescapeKey(got)
			if err != nil {
				t.Fatalf("UnescapeKey(%q) failed: %v", got, err)
			}
			if back != tt.key {
				t.Errorf("Round trip of %q gave %q", tt.key, back)
			}
		})
	}
}

func TestListKeysURL(t *testing.T) {
	// First page: no cursor parameter at all
	got := listKeysURL("https://api.example.com", "acct1", "ns1", 1000, "")
	want := "https://api.example.com/accounts/acct1/storage/kv/namespaces/ns1/keys?limit=1000"
	if got != want {
		t.Errorf("listKeysURL without cursor = %q, want %q", got, want)
	}

	// Subsequent pages carry the cursor
	got = listKeysURL("https://api.example.com", "acct1", "ns1", 500, "abc123")
	want = "https://api.example.com/accounts/acct1/storage/kv/namespaces/ns1/keys?cursor=abc123&limit=500"
	if got != want {
		t.Errorf("listKeysURL with cursor = %q, want %q", got, want)
	}
}

func TestValueURL(t *testing.T) {
	got := valueURL("https://api.example.com", "acct1", "ns1", "users/42")
	want := "https://api.example.com/accounts/acct1/storage/kv/namespaces/ns1/values/users%2F42"
	if got != want {
		t.Errorf("valueURL = %q, want %q", got, want)
	}
}

func TestHasMorePages(t *testing.T) {
	resp := &ListKeysResponse{ResultInfo: ResultInfo{Cursor: "next"}}
	if !resp.HasMorePages() {
		t.Error("Expected more pages when cursor is non-empty")
	}

	resp.ResultInfo.Cursor = ""
	if resp.HasMorePages() {
		t.Error("Expected no more pages when cursor is empty")
	}
}
