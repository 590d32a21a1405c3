package window

import "fmt"

// Config holds the page-windowing parameters for slicing a full dataset
// into fetch-sized pages.
type Config struct {
	Page  int // 1-based page number
	Limit int // Records per page (0 = everything on page 1)
}

// Validate checks the windowing parameters.
// Rules:
// - Page must be at least 1
// - Limit must be non-negative
func (c Config) Validate() error {
	if c.Page < 1 {
		return fmt.Errorf("page must be at least 1, got %d", c.Page)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", c.Limit)
	}
	return nil
}

// Bounds returns the half-open [start, end) range of the window within a
// dataset of the given length. Out-of-range pages collapse to an empty
// range at the end of the data.
func (c Config) Bounds(length int) (int, int) {
	if c.Limit <= 0 {
		if c.Page > 1 {
			return length, length
		}
		return 0, length
	}

	start := (c.Page - 1) * c.Limit
	if start > length {
		start = length
	}

	end := start + c.Limit
	if end > length {
		end = length
	}

	if start > end {
		start = end
	}

	return start, end
}

// Cut returns the window's slice of rows. The result aliases the input;
// callers that mutate it should copy first.
func Cut[T any](rows []T, c Config) []T {
	start, end := c.Bounds(len(rows))
	return rows[start:end]
}

// Pages returns how many pages of the configured limit the dataset spans.
// Zero-length data still counts as one (empty) page.
func (c Config) Pages(length int) int {
	if c.Limit <= 0 || length <= 0 {
		return 1
	}
	n := length / c.Limit
	if length%c.Limit != 0 {
		n++
	}
	return n
}
