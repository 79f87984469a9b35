package dto

import (
	"net/url"
	"strconv"

	"reviewhub/internal/shared"
)

// Paginated is the list envelope: total count, neighbour page links and
// the current page of results.
type Paginated[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPaginated builds the envelope. Links reuse the request URL with only
// the page parameter changed.
func NewPaginated[T any](results []T, total int64, page shared.Page, requestURL *url.URL) Paginated[T] {
	if results == nil {
		results = []T{}
	}

	p := Paginated[T]{Count: total, Results: results}
	if requestURL == nil {
		return p
	}
	if page.HasNext(total) {
		p.Next = pageLink(requestURL, page.Number+1)
	}
	if page.HasPrevious() {
		p.Previous = pageLink(requestURL, page.Number-1)
	}
	return p
}

func pageLink(u *url.URL, number int) *string {
	link := *u
	q := link.Query()
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	link.RawQuery = q.Encode()
	s := link.String()
	return &s
}
