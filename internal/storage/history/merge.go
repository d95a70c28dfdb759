package history

import (
	"sort"

	"github.com/bobmcallan/scorecard/internal/models"
)

type rowKey struct {
	ticker string
	date   string
}

// Merge appends incoming to existing, orders the result by timestamp
// (stable, so equal timestamps keep file-then-run order) and keeps only the
// last row for each (ticker, date).
func Merge[T models.HistoryRow](existing, incoming []T) []T {
	combined := make([]T, 0, len(existing)+len(incoming))
	combined = append(combined, existing...)
	combined = append(combined, incoming...)

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].HistoryTimestamp() < combined[j].HistoryTimestamp()
	})

	last := make(map[rowKey]int, len(combined))
	for i, row := range combined {
		ticker, date := row.HistoryKey()
		last[rowKey{ticker, date}] = i
	}

	out := make([]T, 0, len(last))
	for i, row := range combined {
		ticker, date := row.HistoryKey()
		if last[rowKey{ticker, date}] == i {
			out = append(out, row)
		}
	}
	return out
}
