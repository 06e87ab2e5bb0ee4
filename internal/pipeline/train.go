// Package pipeline runs the offline jobs: preprocessing, balancing inspection,
// training and evaluation.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spam-classifier/internal/artifact"
	"spam-classifier/internal/balance"
	"spam-classifier/internal/dataset"
	"spam-classifier/internal/evaluation"
	"spam-classifier/internal/model"
	"spam-classifier/internal/tfidf"
)

// Options groups the parameters of every training stage.
type Options struct {
	Split      dataset.SplitOptions `yaml:"split"`
	Vectorizer tfidf.Options        `yaml:"vectorizer"`
	Balance    balance.Options      `yaml:"balance"`
	Model      model.Params         `yaml:"model"`
}

// DefaultOptions returns an 80/20 split with seed 42 and the production vectorizer,
// balancer and model settings.
func DefaultOptions() Options {
	return Options{
		Split:      dataset.SplitOptions{TestRatio: 0.2, Seed: 42},
		Vectorizer: tfidf.DefaultOptions(),
		Balance:    balance.DefaultOptions(),
		Model:      model.DefaultParams(),
	}
}

// TrainResult summarises a training run.
type TrainResult struct {
	Manifest *artifact.Manifest
	// HeldOut holds the scores of every model on the test partition.
	HeldOut map[model.Kind]evaluation.Report
}

// loadClean reads a corpus and applies the same cleaning used at serving time.
func loadClean(path string) ([]dataset.Record, error) {
	records, err := dataset.LoadCSV(path)
	if err != nil {
		return nil, err
	}
	records = dataset.DropEmpty(dataset.Normalize(records))
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset %s has no usable text", path)
	}
	return records, nil
}

// Train splits the corpus, fits the vectorizer and balances on the training
// partition only, trains both models concurrently, and saves the bundle.
func Train(ctx context.Context, dataPath, artifactDir string, opts Options, logger *zap.Logger) (*TrainResult, error) {
	start := time.Now()
	records, err := loadClean(dataPath)
	if err != nil {
		return nil, err
	}
	split, err := dataset.StratifiedSplit(dataset.LabelsOf(records), opts.Split)
	if err != nil {
		return nil, err
	}
	train := dataset.Select(records, split.Train)
	test := dataset.Select(records, split.Test)
	logger.Info("Dataset split",
		zap.String("path", dataPath),
		zap.Int("train", len(train)),
		zap.Int("test", len(test)))

	vec, err := tfidf.Fit(dataset.Texts(train), opts.Vectorizer)
	if err != nil {
		return nil, err
	}
	vec.Version = artifact.NewVersion()
	logger.Info("Vectorizer fitted", zap.Int("features", vec.Dim()), zap.String("version", vec.Version))

	X, y, err := balance.SMOTE(vec.TransformAll(dataset.Texts(train)), dataset.LabelsOf(train), opts.Balance)
	if err != nil {
		return nil, err
	}
	counts := dataset.CountLabels(y)
	logger.Info("Training set balanced",
		zap.Int("ham", counts[dataset.Ham]),
		zap.Int("spam", counts[dataset.Spam]))

	params := opts.Model
	params.VectorizerVersion = vec.Version

	var mu sync.Mutex
	models := make(map[model.Kind]model.Classifier, len(model.Kinds))
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range model.Kinds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			began := time.Now()
			clf, err := model.Train(kind, X, y, params)
			if err != nil {
				return fmt.Errorf("train %s: %w", kind, err)
			}
			logger.Info("Model trained", zap.String("model", string(kind)), zap.Duration("took", time.Since(began)))
			mu.Lock()
			models[kind] = clf
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	Xtest := vec.TransformAll(dataset.Texts(test))
	ytest := dataset.LabelsOf(test)
	result := &TrainResult{HeldOut: make(map[model.Kind]evaluation.Report)}
	for _, kind := range model.Kinds {
		report, err := evaluation.Evaluate(models[kind], Xtest, ytest)
		if err != nil {
			return nil, err
		}
		result.HeldOut[kind] = report
		logger.Info("Held-out accuracy", zap.String("model", string(kind)), zap.Float64("accuracy", report.Accuracy))
	}

	result.Manifest, err = artifact.Save(artifactDir, artifact.Bundle{
		Vectorizer: vec,
		Models:     models,
		Split: artifact.SplitInfo{
			Seed:          opts.Split.Seed,
			TestRatio:     opts.Split.TestRatio,
			Stratified:    true,
			TrainSize:     len(train),
			TestSize:      len(test),
			DatasetSHA256: dataset.Fingerprint(records),
		},
	}, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Training finished", zap.Duration("took", time.Since(start)))
	return result, nil
}
