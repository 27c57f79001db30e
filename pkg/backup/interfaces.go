package backup

import "kvbackup/pkg/cloudflare"

// KVClient defines the remote API operations the pipeline needs
type KVClient interface {
	ListKeys(cursor string, limit int) (*cloudflare.ListKeysResponse, error)
	FetchValue(name string) ([]byte, error)
}
