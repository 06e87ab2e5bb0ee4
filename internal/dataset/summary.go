package dataset

import (
	"fmt"
	"io"
	"strings"
)

// Summary describes a corpus at a glance.
type Summary struct {
	Rows        int
	EmptyTexts  int
	Duplicates  int
	LabelCounts map[Label]int
	MeanLength  float64
}

// Summarize computes the corpus summary.
func Summarize(records []Record) Summary {
	s := Summary{Rows: len(records), LabelCounts: CountLabels(LabelsOf(records))}
	seen := make(map[string]bool)
	var total int
	for _, r := range records {
		if strings.TrimSpace(r.Text) == "" {
			s.EmptyTexts++
		}
		if seen[r.Text] {
			s.Duplicates++
		}
		seen[r.Text] = true
		total += len([]rune(r.Text))
	}
	if len(records) > 0 {
		s.MeanLength = float64(total) / float64(len(records))
	}
	return s
}

// Write renders the summary as plain text.
func (s Summary) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Rows: %d\nEmpty texts: %d\nDuplicate texts: %d\nMean text length: %.1f\nLabel distribution:\n",
		s.Rows, s.EmptyTexts, s.Duplicates, s.MeanLength)
	if err != nil {
		return err
	}
	for _, l := range Labels {
		if _, err := fmt.Fprintf(w, "  %-4s (%d): %d\n", l, int(l), s.LabelCounts[l]); err != nil {
			return err
		}
	}
	return nil
}
