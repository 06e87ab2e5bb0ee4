package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"spam-classifier/internal/balance"
	"spam-classifier/internal/dataset"
	"spam-classifier/internal/tfidf"
)

// Preprocess writes the cleaned corpus as text,label_num. Blank rows are dropped and,
// when dedupe is set, repeated texts keep their first occurrence.
func Preprocess(inPath, outPath string, dedupe bool, logger *zap.Logger) ([]dataset.Record, error) {
	records, err := loadClean(inPath)
	if err != nil {
		return nil, err
	}
	before := len(records)
	if dedupe {
		records = dataset.DropDuplicates(records)
	}
	if err := dataset.WriteCSV(outPath, records); err != nil {
		return nil, err
	}
	logger.Info("Dataset preprocessed",
		zap.String("in", inPath),
		zap.String("out", outPath),
		zap.Int("rows", len(records)),
		zap.Int("duplicates_dropped", before-len(records)))
	return records, nil
}

// InspectionVectorizer is the plain unigram space used to reconstruct balanced text.
func InspectionVectorizer() tfidf.Options {
	return tfidf.Options{NGramMin: 1, NGramMax: 1}
}

// BalanceDataset oversamples the whole corpus and writes the reconstructed texts for
// inspection. Reconstructed rows are bags of vocabulary terms in index order and are
// not used for training.
func BalanceDataset(inPath, outPath string, opts balance.Options, logger *zap.Logger) ([]dataset.Record, error) {
	records, err := loadClean(inPath)
	if err != nil {
		return nil, err
	}
	vec, err := tfidf.Fit(dataset.Texts(records), InspectionVectorizer())
	if err != nil {
		return nil, err
	}
	X, y, err := balance.SMOTE(vec.TransformAll(dataset.Texts(records)), dataset.LabelsOf(records), opts)
	if err != nil {
		return nil, err
	}

	out := make([]dataset.Record, X.Len())
	for i, row := range X.Rows {
		out[i] = dataset.Record{Text: strings.Join(vec.InverseTransform(row), " "), Label: y[i]}
	}
	out = dataset.DropDuplicates(dataset.DropEmpty(out))
	if err := dataset.WriteCSV(outPath, out); err != nil {
		return nil, err
	}

	counts := dataset.CountLabels(dataset.LabelsOf(out))
	logger.Info("Balanced dataset written",
		zap.String("out", outPath),
		zap.Int("rows", len(out)),
		zap.Int("ham", counts[dataset.Ham]),
		zap.Int("spam", counts[dataset.Spam]))
	return out, nil
}
