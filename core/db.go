package core

// Pagination describes an offset-based page over a filtered result set.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func NewPagination(page, limit, total int) Pagination {
	pages := total / limit
	if total%limit > 0 {
		pages++
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// Offset returns the number of rows to skip: (page-1)*limit.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
