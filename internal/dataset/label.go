// Package dataset reads and writes the labelled email corpus and draws the
// reproducible train/test split.
package dataset

import (
	"fmt"
	"strings"

	"spam-classifier/internal/apperr"
)

// Label is the binary class of an email. Its integer value is the label_num encoding
// used by the corpus.
type Label int

const (
	Ham  Label = 0
	Spam Label = 1
)

// Labels lists every class in index order.
var Labels = []Label{Ham, Spam}

func (l Label) String() string {
	switch l {
	case Ham:
		return "ham"
	case Spam:
		return "spam"
	default:
		return fmt.Sprintf("label(%d)", int(l))
	}
}

// ParseLabel accepts "ham"/"spam" (any case) or the numeric encoding "0"/"1".
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ham", "0":
		return Ham, nil
	case "spam", "1":
		return Spam, nil
	default:
		return 0, fmt.Errorf("%w: unknown label %q", apperr.ErrValidation, s)
	}
}

// Record is one labelled email.
type Record struct {
	Text  string
	Label Label
}

// Texts returns the text column.
func Texts(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Text
	}
	return out
}

// LabelsOf returns the label column.
func LabelsOf(records []Record) []Label {
	out := make([]Label, len(records))
	for i, r := range records {
		out[i] = r.Label
	}
	return out
}

// CountLabels returns the number of records per class.
func CountLabels(labels []Label) map[Label]int {
	counts := make(map[Label]int)
	for _, l := range labels {
		counts[l]++
	}
	return counts
}
