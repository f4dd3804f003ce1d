package api

import "net/http"

// Response is the envelope every request function resolves to.
type Response[T any] struct {
	Status int         `json:"status"`
	Header http.Header `json:"header,omitempty"`
	Data   T           `json:"data"`
}

// Page is the body of list endpoints.
type Page[T any] struct {
	Data    []T  `json:"data"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

type PageResponse[T any] = Response[Page[T]]

func (r *Response[T]) setMeta(status int, h http.Header) { r.Status, r.Header = status, h }
func (r *Response[T]) dataPtr() any                      { return &r.Data }
