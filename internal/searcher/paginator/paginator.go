// Package paginator splits an ordered slice into fixed-size pages.
package paginator

import (
	"iter"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Paginate yields contiguous pages of items, each pageSize long except a
// possibly shorter last one. Pages share storage with items but are capped
// so appending to a page never overwrites the next one. An empty input
// yields no pages.
func Paginate[T any](items []T, pageSize int) (iter.Seq[[]T], error) {
	if pageSize <= 0 {
		return nil, apperrors.InvalidArgument("page size must be positive, got %d", pageSize)
	}
	return func(yield func([]T) bool) {
		for lo := 0; lo < len(items); lo += pageSize {
			hi := min(lo+pageSize, len(items))
			if !yield(items[lo:hi:hi]) {
				return
			}
		}
	}, nil
}

// PageCount is ceil(n / pageSize) for a positive pageSize.
func PageCount(n, pageSize int) int {
	if pageSize <= 0 || n <= 0 {
		return 0
	}
	return (n + pageSize - 1) / pageSize
}
