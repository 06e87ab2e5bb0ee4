package dataset

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spam-classifier/internal/apperr"
)

const referenceCorpus = "../../testdata/emails.csv"

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in      string
		want    Label
		wantErr bool
	}{
		{in: "ham", want: Ham},
		{in: "SPAM", want: Spam},
		{in: " 0 ", want: Ham},
		{in: "1", want: Spam},
		{in: "maybe", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLabel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "spam", Spam.String())
}

func TestLoadReferenceCorpus(t *testing.T) {
	records, err := LoadCSV(referenceCorpus)
	require.NoError(t, err)

	counts := CountLabels(LabelsOf(records))
	assert.Equal(t, 32, counts[Ham])
	assert.Equal(t, 22, counts[Spam])
}

func TestReadCSVColumnSelection(t *testing.T) {
	t.Run("label_num preferred", func(t *testing.T) {
		in := "label,text,label_num\nham,hello,1\n"
		records, err := ReadCSV(strings.NewReader(in))
		require.NoError(t, err)
		assert.Equal(t, Spam, records[0].Label)
	})
	t.Run("string labels", func(t *testing.T) {
		records, err := ReadCSV(strings.NewReader("text,label\nhi,spam\n"))
		require.NoError(t, err)
		assert.Equal(t, []Record{{Text: "hi", Label: Spam}}, records)
	})
	t.Run("missing column", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("body,label\nhi,spam\n"))
		assert.Error(t, err)
	})
	t.Run("bad label", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("text,label\nhi,eggs\n"))
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
	t.Run("empty", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("text,label\n"))
		assert.Error(t, err)
	})
}

func TestWriteCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	in := []Record{{Text: "hello, world", Label: Ham}, {Text: "free \"cash\"", Label: Spam}}
	require.NoError(t, WriteCSV(path, in))

	out, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNormalizeAndDropDuplicates(t *testing.T) {
	records := Normalize([]Record{
		{Text: "FREE cash!!!", Label: Spam},
		{Text: "free cash", Label: Spam},
		{Text: "Lunch?", Label: Ham},
	})
	assert.Equal(t, "free cash", records[0].Text)

	deduped := DropDuplicates(records)
	assert.Equal(t, []Record{{Text: "free cash", Label: Spam}, {Text: "lunch", Label: Ham}}, deduped)

	kept := DropEmpty(Normalize([]Record{{Text: "1234 !!", Label: Ham}, {Text: "ok", Label: Ham}}))
	assert.Equal(t, []Record{{Text: "ok", Label: Ham}}, kept)
}

func TestFingerprint(t *testing.T) {
	a := []Record{{Text: "x", Label: Ham}}
	b := []Record{{Text: "x", Label: Spam}}
	assert.Equal(t, Fingerprint(a), Fingerprint([]Record{{Text: "x", Label: Ham}}))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestStratifiedSplit(t *testing.T) {
	records, err := LoadCSV(referenceCorpus)
	require.NoError(t, err)
	labels := LabelsOf(records)

	split, err := StratifiedSplit(labels, SplitOptions{TestRatio: 0.2, Seed: 42})
	require.NoError(t, err)

	assert.Len(t, split.Train, len(records)-len(split.Test))
	testCounts := CountLabels(LabelsOf(Select(records, split.Test)))
	assert.Equal(t, 6, testCounts[Ham])  // round(0.2*32)
	assert.Equal(t, 4, testCounts[Spam]) // round(0.2*22)

	seen := make(map[int]bool)
	for _, r := range append(append([]int{}, split.Train...), split.Test...) {
		assert.False(t, seen[r], "row %d in both partitions", r)
		seen[r] = true
	}

	again, err := StratifiedSplit(labels, SplitOptions{TestRatio: 0.2, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, split, again)

	other, err := StratifiedSplit(labels, SplitOptions{TestRatio: 0.2, Seed: 7})
	require.NoError(t, err)
	assert.NotEqual(t, split.Test, other.Test)
}

func TestStratifiedSplitErrors(t *testing.T) {
	_, err := StratifiedSplit([]Label{Ham, Spam}, SplitOptions{TestRatio: 1.5})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = StratifiedSplit([]Label{Ham, Ham, Ham}, SplitOptions{TestRatio: 0.1})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSummary(t *testing.T) {
	s := Summarize([]Record{{Text: "a", Label: Ham}, {Text: "a", Label: Spam}, {Text: " ", Label: Ham}})
	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, 1, s.Duplicates)
	assert.Equal(t, 1, s.EmptyTexts)

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))
	assert.Contains(t, buf.String(), "spam (1): 1")
}
