package models

import "encoding/json"

// Pagination is the page metadata returned by list endpoints. Older endpoints
// use currentPage/totalPages/hasNextPage; both shapes decode into the same fields.
type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit,omitempty"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

func (p *Pagination) UnmarshalJSON(data []byte) error {
	var raw struct {
		Page        *int  `json:"page"`
		CurrentPage *int  `json:"currentPage"`
		Limit       int   `json:"limit"`
		Total       *int  `json:"total"`
		TotalPosts  *int  `json:"totalPosts"`
		Pages       *int  `json:"pages"`
		TotalPages  *int  `json:"totalPages"`
		HasNext     *bool `json:"hasNext"`
		HasNextPage *bool `json:"hasNextPage"`
		HasPrev     *bool `json:"hasPrev"`
		HasPrevPage *bool `json:"hasPrevPage"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Pagination{
		Page:    firstInt(raw.Page, raw.CurrentPage),
		Limit:   raw.Limit,
		Total:   firstInt(raw.Total, raw.TotalPosts),
		Pages:   firstInt(raw.Pages, raw.TotalPages),
		HasNext: firstBool(raw.HasNext, raw.HasNextPage),
		HasPrev: firstBool(raw.HasPrev, raw.HasPrevPage),
	}
	return nil
}

func firstInt(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func firstBool(values ...*bool) bool {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return false
}
