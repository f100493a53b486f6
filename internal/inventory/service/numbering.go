package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sequence widths for generated document numbers
const (
	batchSeqWidth        = 3
	receiptNoteSeqWidth  = 3
	deliveryNoteSeqWidth = 4
)

// dayPrefix builds the per-day number prefix, e.g. "GR-250830-".
func dayPrefix(prefix string, day time.Time) string {
	return fmt.Sprintf("%s-%s-", prefix, day.Format("060102"))
}

// nextNumber derives the next sequential number for a day from the
// highest existing number with the same prefix. Sequences restart at 1
// each day; the day prefix keeps them unique across days.
func nextNumber(last, prefix string, width int) string {
	seq := 1
	if last != "" && strings.HasPrefix(last, prefix) {
		if n, err := strconv.Atoi(last[len(prefix):]); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%0*d", prefix, width, seq)
}
