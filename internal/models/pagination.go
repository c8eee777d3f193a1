package models

import "encoding/json"

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 20

// Pagination is the cursor of a list view.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalCount  int `json:"totalCount"`
	Limit       int `json:"limit"`
}

// UnmarshalJSON accepts the camelCase shape and the snake_case variant some
// endpoints still emit (page, page_size, total_count).
func (p *Pagination) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	pick := func(keys ...string) int {
		for _, key := range keys {
			v, ok := raw[key]
			if !ok {
				continue
			}
			var n json.Number
			if err := json.Unmarshal(v, &n); err != nil || n == "" {
				continue
			}
			if i, err := n.Int64(); err == nil {
				return int(i)
			}
			if f, err := n.Float64(); err == nil {
				return int(f)
			}
		}
		return 0
	}
	*p = Pagination{
		CurrentPage: pick("currentPage", "page", "current_page"),
		TotalPages:  pick("totalPages", "total_pages", "pages"),
		TotalCount:  pick("totalCount", "total_count", "total", "totalItems"),
		Limit:       pick("limit", "page_size", "pageSize", "perPage", "per_page"),
	}
	return nil
}

// TotalPages returns ceil(count/limit), or 0 when limit is not positive.
func TotalPages(count, limit int) int {
	if limit <= 0 || count <= 0 {
		return 0
	}
	return (count + limit - 1) / limit
}

// ClampPage keeps page within [1, max(totalPages,1)].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if upper := max(totalPages, 1); page > upper {
		return upper
	}
	return page
}

// Page is one page of server-side results.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// ListParams is a collection request: filters plus pagination and sort.
type ListParams struct {
	Filters   Filters
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}
