// Package inference holds the read-only scoring context used by the prediction
// service and the sample command.
package inference

import (
	"fmt"

	"go.uber.org/zap"

	"spam-classifier/internal/apperr"
	"spam-classifier/internal/artifact"
	"spam-classifier/internal/dataset"
	"spam-classifier/internal/model"
	"spam-classifier/internal/textnorm"
	"spam-classifier/internal/tfidf"
)

// Prediction is the result of scoring one text.
type Prediction struct {
	Label       dataset.Label
	Probability float64 // probability of spam
}

// Predictor pairs a vectorizer with one model. It is immutable once built and safe
// for concurrent use.
type Predictor struct {
	vec *tfidf.Vectorizer
	clf model.Classifier
}

// New builds a Predictor, rejecting a model trained against another vectorizer.
func New(vec *tfidf.Vectorizer, clf model.Classifier) (*Predictor, error) {
	if vec == nil || clf == nil {
		return nil, fmt.Errorf("%w: predictor needs a vectorizer and a model", apperr.ErrArtifactLoad)
	}
	if clf.VectorizerVersion() != vec.Version {
		return nil, fmt.Errorf("%w: %s model expects vectorizer %q, got %q",
			apperr.ErrArtifactLoad, clf.Kind(), clf.VectorizerVersion(), vec.Version)
	}
	return &Predictor{vec: vec, clf: clf}, nil
}

// Load reads the vectorizer and the model of the given kind from an artifact
// directory.
func Load(dir string, kind model.Kind, logger *zap.Logger) (*Predictor, error) {
	b, m, err := artifact.Load(dir, kind)
	if err != nil {
		return nil, err
	}
	p, err := New(b.Vectorizer, b.Models[kind])
	if err != nil {
		return nil, err
	}
	logger.Info("Predictor loaded",
		zap.String("dir", dir),
		zap.String("model", string(kind)),
		zap.String("version", m.Version),
		zap.Int("features", b.Vectorizer.Dim()))
	return p, nil
}

// Predict normalizes text exactly as the training corpus was and scores it.
func (p *Predictor) Predict(text string) Prediction {
	x := p.vec.Transform(textnorm.Normalize(text))
	return Prediction{Label: p.clf.Predict(x), Probability: p.clf.PredictProba(x)}
}

func (p *Predictor) Kind() model.Kind { return p.clf.Kind() }

// Version is the artifact version the predictor was loaded from.
func (p *Predictor) Version() string { return p.vec.Version }
