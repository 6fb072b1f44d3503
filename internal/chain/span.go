package chain

import "fmt"

// Span is a half-open index range [From, To).
type Span struct {
	From int
	To   int
}

// SplitSpans splits n items into consecutive spans of at most size items.
func SplitSpans(n, size int) ([]Span, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if n < 0 {
		return nil, fmt.Errorf("item count must not be negative")
	}

	spans := make([]Span, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		spans = append(spans, Span{From: start, To: end})
	}
	return spans, nil
}
