// Package cloudflare provides a client for the Workers KV HTTP API.
//
// It covers the two endpoints the backup needs: cursor-paginated key
// listing and raw value fetch. Responses map to typed models; non-200
// statuses map to typed errors (see kvbackup/pkg/errors) so callers can
// distinguish retryable rate limiting from terminal failures. Key names
// are percent-encoded per path-segment rules with embedded slashes
// encoded as %2F.
//
// Example:
//
//	client := cloudflare.NewClient(token, accountID, namespaceID, 30*time.Second, nil)
//
//	page, err := client.ListKeys("", 1000)
//	if err != nil {
//	    // listing failures are terminal for the producer
//	}
//	for _, key := range page.Result {
//	    value, err := client.FetchValue(key.Name)
//	    ...
//	}
package cloudflare
