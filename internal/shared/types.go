package shared

import "math"

// shared types across the application

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps number and size to sane values. Number is capped so the
// row offset stays within int32.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if maxNumber := math.MaxInt32 / size; number > maxNumber {
		number = maxNumber
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

func (p Page) Limit() int {
	return p.Size
}

// HasNext reports whether rows exist past this page.
func (p Page) HasNext(total int64) bool {
	return int64(p.Number*p.Size) < total
}

func (p Page) HasPrevious() bool {
	return p.Number > 1
}
