package models

import "math"

// PaginationParams holds paging and sorting for list endpoints.
type PaginationParams struct {
	Page   int    `json:"page" query:"page" example:"1"`
	Limit  int    `json:"limit" query:"limit" example:"20"`
	SortBy string `json:"sortBy" query:"sortBy" example:"scannedAt"`
	Order  string `json:"order" query:"order" example:"asc"`
}

// PaginatedResponse is the envelope for paged lists.
type PaginatedResponse struct {
	Data        interface{} `json:"data"`
	Total       int64       `json:"total"`
	Page        int         `json:"page"`
	Limit       int         `json:"limit"`
	TotalPages  int         `json:"totalPages"`
	HasNext     bool        `json:"hasNext"`
	HasPrevious bool        `json:"hasPrevious"`
}

const maxPageLimit = 200

// DefaultPagination returns the defaults used when the query omits paging.
func DefaultPagination() PaginationParams {
	return PaginationParams{
		Page:   1,
		Limit:  20,
		SortBy: "scannedAt",
		Order:  "asc",
	}
}

// Normalize clamps page and limit into a usable range.
func (p *PaginationParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.SortBy == "" {
		p.SortBy = "scannedAt"
	}
}

// NewPaginatedResponse builds the envelope for one page of data.
func NewPaginatedResponse(data interface{}, total int64, params PaginationParams) *PaginatedResponse {
	totalPages := 0
	if params.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(params.Limit)))
	}

	return &PaginatedResponse{
		Data:        data,
		Total:       total,
		Page:        params.Page,
		Limit:       params.Limit,
		TotalPages:  totalPages,
		HasNext:     params.Page < totalPages,
		HasPrevious: params.Page > 1,
	}
}

// GetSkip returns the number of items before the requested page.
func (p *PaginationParams) GetSkip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// GetSortOrder returns the sort direction, 1 for asc and -1 for desc.
func (p *PaginationParams) GetSortOrder() int {
	if p.Order == "desc" {
		return -1
	}
	return 1
}
