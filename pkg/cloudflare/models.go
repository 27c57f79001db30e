package cloudflare

// Key is a single entry in the key listing. The name is an opaque UTF-8
// string and may contain path separators.
type Key struct {
	Name       string                 `json:"name"`
	Expiration int64                  `json:"expiration,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ResultInfo carries the pagination metadata of a listing response. A
// non-empty cursor means more pages follow.
type ResultInfo struct {
	Count  int    `json:"count"`
	Cursor string `json:"cursor"`
}

// ListKeysResponse is the envelope of the key listing endpoint
type ListKeysResponse struct {
	Success    bool       `json:"success"`
	Result     []Key      `json:"result"`
	ResultInfo ResultInfo `json:"result_info"`
}

// HasMorePages reports whether the listing should continue
func (r *ListKeysResponse) HasMorePages() bool {
	return r.ResultInfo.Cursor != ""
}
