package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"spam-classifier/internal/apperr"
	"spam-classifier/internal/artifact"
	"spam-classifier/internal/dataset"
	"spam-classifier/internal/evaluation"
	"spam-classifier/internal/model"
)

// Evaluate reloads a saved bundle, rebuilds the held-out partition recorded in its
// manifest and writes a text and a YAML report per model into reportsDir.
func Evaluate(dataPath, artifactDir, reportsDir string, logger *zap.Logger) (map[model.Kind]evaluation.Report, error) {
	bundle, manifest, err := artifact.Load(artifactDir, model.Kinds...)
	if err != nil {
		return nil, err
	}
	records, err := loadClean(dataPath)
	if err != nil {
		return nil, err
	}
	if got := dataset.Fingerprint(records); got != manifest.Split.DatasetSHA256 {
		return nil, fmt.Errorf("%w: dataset %s differs from the one the artifacts were trained on", apperr.ErrValidation, dataPath)
	}

	split, err := dataset.StratifiedSplit(dataset.LabelsOf(records), dataset.SplitOptions{
		TestRatio: manifest.Split.TestRatio,
		Seed:      manifest.Split.Seed,
	})
	if err != nil {
		return nil, err
	}
	if len(split.Test) != manifest.Split.TestSize {
		return nil, fmt.Errorf("%w: rebuilt test partition has %d rows, manifest records %d",
			apperr.ErrValidation, len(split.Test), manifest.Split.TestSize)
	}
	test := dataset.Select(records, split.Test)
	X := bundle.Vectorizer.TransformAll(dataset.Texts(test))
	y := dataset.LabelsOf(test)

	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}

	reports := make(map[model.Kind]evaluation.Report, len(model.Kinds))
	for _, kind := range model.Kinds {
		report, err := evaluation.Evaluate(bundle.Models[kind], X, y)
		if err != nil {
			return nil, err
		}
		if err := writeReport(reportsDir, kind, report); err != nil {
			return nil, err
		}
		reports[kind] = report
		logger.Info("Model evaluated",
			zap.String("model", string(kind)),
			zap.String("version", manifest.Version),
			zap.Int("samples", report.Samples),
			zap.Float64("accuracy", report.Accuracy))
	}
	return reports, nil
}

// ReportFiles returns the text and YAML report paths of a model kind.
func ReportFiles(dir string, kind model.Kind) (string, string) {
	return filepath.Join(dir, string(kind)+"_evaluation_report.txt"),
		filepath.Join(dir, string(kind)+"_metrics.yaml")
}

func writeReport(dir string, kind model.Kind, report evaluation.Report) error {
	textPath, yamlPath := ReportFiles(dir, kind)

	text, err := os.Create(textPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", textPath, err)
	}
	defer text.Close()
	if err := report.WriteText(text); err != nil {
		return fmt.Errorf("failed to write %s: %w", textPath, err)
	}

	metrics, err := os.Create(yamlPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", yamlPath, err)
	}
	defer metrics.Close()
	if err := report.WriteYAML(metrics); err != nil {
		return fmt.Errorf("failed to write %s: %w", yamlPath, err)
	}
	return nil
}
