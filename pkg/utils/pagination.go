package utils

import "strconv"

// PageParams is a resolved page request: Page is 1-based, Size is bounded.
type PageParams struct {
	Page int
	Size int
}

func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Size
}

// ParsePageParams reads raw page and page_size query values. Missing, malformed
// or non-positive values fall back to page 1 and defaultSize; sizes above
// maxSize are clamped.
func ParsePageParams(rawPage, rawSize string, defaultSize, maxSize int) PageParams {
	page, err := strconv.Atoi(rawPage)
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(rawSize)
	if err != nil || size < 1 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	return PageParams{Page: page, Size: size}
}

type PageMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	HasNext  bool  `json:"has_next"`
	HasPrev  bool  `json:"has_prev"`
	NextPage *int  `json:"next_page"`
	PrevPage *int  `json:"prev_page"`
}

func BuildMeta(total int64, p PageParams) PageMeta {
	meta := PageMeta{
		Total:    total,
		Page:     p.Page,
		PageSize: p.Size,
		HasPrev:  p.Page > 1,
		HasNext:  int64(p.Page)*int64(p.Size) < total,
	}
	if meta.HasNext {
		n := p.Page + 1
		meta.NextPage = &n
	}
	if meta.HasPrev {
		n := p.Page - 1
		meta.PrevPage = &n
	}
	return meta
}
