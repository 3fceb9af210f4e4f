package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Response is the envelope every JSON endpoint returns
type Response struct {
	Success    bool            `json:"success"`
	Count      *int            `json:"count,omitempty"`
	Message    string          `json:"message,omitempty"`
	Data       interface{}     `json:"data,omitempty"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

// PaginationMeta holds pagination metadata
type PaginationMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// PaginationParams holds pagination parameters from request
type PaginationParams struct {
	Page    int
	PerPage int
	Offset  int
}

// DefaultPaginationParams returns default pagination parameters
func DefaultPaginationParams() *PaginationParams {
	return &PaginationParams{
		Page:    1,
		PerPage: 50,
		Offset:  0,
	}
}

// ParsePaginationParams extracts pagination parameters from query string
func ParsePaginationParams(c echo.Context) *PaginationParams {
	params := DefaultPaginationParams()

	if page := c.QueryParam("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}

	if perPage := c.QueryParam("per_page"); perPage != "" {
		if pp, err := strconv.Atoi(perPage); err == nil && pp > 0 && pp <= 100 {
			params.PerPage = pp
		}
	}

	params.Offset = (params.Page - 1) * params.PerPage
	return params
}

// CalculatePagination calculates pagination metadata
func CalculatePagination(page, perPage, total int) PaginationMeta {
	totalPages := total / perPage
	if total%perPage > 0 {
		totalPages++
	}

	return PaginationMeta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// SuccessPaginated returns a page of results with pagination metadata
func SuccessPaginated(c echo.Context, data interface{}, count int, pagination PaginationMeta) error {
	return c.JSON(http.StatusOK, &Response{
		Success:    true,
		Count:      &count,
		Data:       data,
		Pagination: &pagination,
	})
}

// SuccessList returns a 200 OK response carrying a count
func SuccessList(c echo.Context, data interface{}, count int) error {
	return c.JSON(http.StatusOK, &Response{Success: true, Count: &count, Data: data})
}

// SuccessCreated returns a 201 Created response
func SuccessCreated(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, &Response{Success: true, Message: message, Data: data})
}

// SuccessOK returns a 200 OK response
func SuccessOK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, &Response{Success: true, Data: data})
}

// SuccessMessage returns a 200 OK response with a human readable message
func SuccessMessage(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, &Response{Success: true, Message: message, Data: data})
}
