package handlers

import (
	"fmt"
	"net/http"
	"strconv"
)

const defaultPageSize = 10

// PaginatedResponse holds the common pagination fields.
type PaginatedResponse[T any] struct {
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Total    int     `json:"total"`
	Prev     *string `json:"prev"`
	Next     *string `json:"next"`
	Data     []T     `json:"data"`
}

// ReturnPaginatedData populates the total count and constructs absolute URLs
// for prev and next. Query parameters other than page and page_size are kept.
func (p *PaginatedResponse[T]) ReturnPaginatedData(r *http.Request, total int) {
	p.Total = total

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	baseURL := fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.Path)

	link := func(page int) *string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(p.PageSize))
		s := baseURL + "?" + q.Encode()
		return &s
	}

	p.Prev = nil
	if p.Page > 1 {
		p.Prev = link(p.Page - 1)
	}

	p.Next = nil
	if p.Page*p.PageSize < total {
		p.Next = link(p.Page + 1)
	}
}

// ExtractPagination reads the page and page_size from the query string
// and returns them with default fallbacks if they are missing or invalid.
func ExtractPagination(r *http.Request) (int, int, error) {
	pageStr := r.URL.Query().Get("page")
	if pageStr == "" {
		pageStr = "1"
	}
	pageSizeStr := r.URL.Query().Get("page_size")
	if pageSizeStr == "" {
		pageSizeStr = strconv.Itoa(defaultPageSize)
	}

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize < 1 {
		pageSize = defaultPageSize
	}

	return page, pageSize, err
}

// Paginate slices items according to the request's page and page_size.
func Paginate[T any](r *http.Request, items []T) PaginatedResponse[T] {
	page, pageSize, _ := ExtractPagination(r)
	resp := PaginatedResponse[T]{
		Page:     page,
		PageSize: pageSize,
		Data:     []T{},
	}

	start := (page - 1) * pageSize
	if start < len(items) {
		end := min(start+pageSize, len(items))
		resp.Data = items[start:end]
	}
	resp.ReturnPaginatedData(r, len(items))
	return resp
}
