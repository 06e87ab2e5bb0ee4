package dataset

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"spam-classifier/internal/textnorm"
)

// LoadCSV reads a corpus with a header row. The label comes from "label_num" when
// present, otherwise from "label". Extra columns such as "Unnamed: 0" are ignored.
func LoadCSV(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}
	textCol, labelCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case "text":
			textCol = i
		case "label_num":
			labelCol = i
		case "label":
			if labelCol == -1 {
				labelCol = i
			}
		}
	}
	if textCol == -1 || labelCol == -1 {
		return nil, fmt.Errorf("dataset header %v must contain text and label or label_num columns", header)
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read dataset line %d: %w", line, err)
		}
		if textCol >= len(row) || labelCol >= len(row) {
			return nil, fmt.Errorf("dataset line %d has %d columns", line, len(row))
		}
		label, err := ParseLabel(row[labelCol])
		if err != nil {
			return nil, fmt.Errorf("dataset line %d: %w", line, err)
		}
		records = append(records, Record{Text: row[textCol], Label: label})
	}

	if len(records) == 0 {
		return nil, errors.New("dataset is empty")
	}
	return records, nil
}

// WriteCSV writes records as text,label_num.
func WriteCSV(path string, records []Record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"text", "label_num"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write([]string{r.Text, strconv.Itoa(int(r.Label))}); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

// Normalize returns a copy of records with textnorm.Normalize applied to every text.
func Normalize(records []Record) []Record {
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	out := make([]Record, len(records))
	for i, t := range textnorm.NormalizeAll(texts) {
		out[i] = Record{Text: t, Label: records[i].Label}
	}
	return out
}

// DropDuplicates keeps the first record for every distinct text.
func DropDuplicates(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if seen[r.Text] {
			continue
		}
		seen[r.Text] = true
		out = append(out, r)
	}
	return out
}

// Fingerprint returns a SHA-256 over the records in order, used to detect a changed
// corpus between training and evaluation.
func Fingerprint(records []Record) string {
	h := sha256.New()
	for _, r := range records {
		fmt.Fprintf(h, "%d\x1f%s\x1e", r.Label, r.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DropEmpty removes records whose text is blank.
func DropEmpty(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Text) != "" {
			out = append(out, r)
		}
	}
	return out
}
