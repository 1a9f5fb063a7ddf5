package appwrite

import (
	"encoding/json"
	"net/url"
)

// query is the JSON query form accepted by Appwrite 1.5+.
type query struct {
	Method string `json:"method"`
	Values []any  `json:"values,omitempty"`
}

// pageQuery builds queries[] for one page; cursor is the last ID of the previous page.
func pageQuery(limit int, cursor string) url.Values {
	qs := []query{{Method: "limit", Values: []any{limit}}}
	if cursor != "" {
		qs = append(qs, query{Method: "cursorAfter", Values: []any{cursor}})
	}

	v := url.Values{}
	for _, q := range qs {
		data, _ := json.Marshal(q)
		v.Add("queries[]", string(data))
	}
	return v
}
