package http

// PaginatedResponse wraps list results with pagination metadata.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination describes a newest-first page.
type Pagination struct {
	Limit    int  `json:"limit"`
	Returned int  `json:"returned"`
	HasMore  bool `json:"has_more"`
}

// newPagination reports a page of returned rows requested with limit.
// A full page may have more rows behind it.
func newPagination(limit, returned int) Pagination {
	return Pagination{Limit: limit, Returned: returned, HasMore: returned >= limit}
}
