package cloudflare

import (
	"fmt"
	"net/url"
)

// BaseURL is the base URL of the Cloudflare v4 API
const BaseURL = "https://api.cloudflare.com/client/v4"

// EscapeKey percent-encodes a key name for use as a single path segment.
// Path separators inside the key are encoded as %2F so they do not split
// the request path; UnescapeKey recovers the original name.
func EscapeKey(name string) string {
	return url.PathEscape(name)
}

// UnescapeKey reverses EscapeKey
func UnescapeKey(escaped string) (string, error) {
	return url.PathUnescape(escaped)
}

// listKeysURL builds the key listing URL for one page
func listKeysURL(base, accountID, namespaceID string, limit int, cursor string) string {
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	return fmt.Sprintf("%s/accounts/%s/storage/kv/namespaces/%s/keys?%s",
		base, accountID, namespaceID, params.Encode())
}

// valueURL builds the value fetch URL for one key
func valueURL(base, accountID, namespaceID, name string) string {
	return fmt.Sprintf("%s/accounts/%s/storage/kv/namespaces/%s/values/%s",
		base, accountID, namespaceID, EscapeKey(name))
}
