// Package model trains and applies the two spam classifiers: a calibrated linear SVM
// and a gradient-boosted tree ensemble.
package model

import (
	"encoding/json"
	"fmt"

	"spam-classifier/internal/apperr"
	"spam-classifier/internal/dataset"
	"spam-classifier/internal/sparse"
)

// Kind names a classifier family.
type Kind string

const (
	KindSVM Kind = "svm"
	KindXGB Kind = "xgb"
)

// Kinds lists every supported kind in report order.
var Kinds = []Kind{KindSVM, KindXGB}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSVM, KindXGB:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown model kind %q (expected svm|xgb)", apperr.ErrValidation, s)
	}
}

// Classifier is a trained, immutable binary classifier.
type Classifier interface {
	Kind() Kind
	// DecisionFunction returns a score whose sign selects the class (positive = spam).
	DecisionFunction(x sparse.Vector) float64
	// PredictProba returns the probability of spam.
	PredictProba(x sparse.Vector) float64
	Predict(x sparse.Vector) dataset.Label
	// VectorizerVersion is the version of the feature space the model was trained on.
	VectorizerVersion() string
}

// Params holds the hyperparameters of both trainers.
type Params struct {
	SVM SVMParams `yaml:"svm"`
	XGB XGBParams `yaml:"xgb"`
	// Seed drives every random choice made during training.
	Seed int64 `yaml:"seed"`
	// VectorizerVersion is stamped into the trained model.
	VectorizerVersion string `yaml:"-"`
}

// DefaultParams returns the production hyperparameters.
func DefaultParams() Params {
	return Params{SVM: DefaultSVMParams(), XGB: DefaultXGBParams(), Seed: 42}
}

// Train fits a classifier of the given kind. It fails with apperr.ErrTraining on
// degenerate input.
func Train(kind Kind, X sparse.Matrix, y []dataset.Label, p Params) (Classifier, error) {
	if err := checkTrainingSet(X, y); err != nil {
		return nil, err
	}
	switch kind {
	case KindSVM:
		return trainSVM(X, y, p)
	case KindXGB:
		return trainXGB(X, y, p)
	default:
		return nil, fmt.Errorf("%w: unknown model kind %q", apperr.ErrTraining, kind)
	}
}

func checkTrainingSet(X sparse.Matrix, y []dataset.Label) error {
	if X.Len() == 0 {
		return fmt.Errorf("%w: empty training set", apperr.ErrTraining)
	}
	if X.Len() != len(y) {
		return fmt.Errorf("%w: %d rows but %d labels", apperr.ErrTraining, X.Len(), len(y))
	}
	counts := dataset.CountLabels(y)
	if len(counts) < 2 {
		return fmt.Errorf("%w: training labels contain a single class", apperr.ErrTraining)
	}
	for l := range counts {
		if l != dataset.Ham && l != dataset.Spam {
			return fmt.Errorf("%w: unsupported label %d", apperr.ErrTraining, int(l))
		}
	}
	return nil
}

// sign maps labels to the ±1 targets used by the trainers.
func sign(l dataset.Label) float64 {
	if l == dataset.Spam {
		return 1
	}
	return -1
}

func labelOf(score float64) dataset.Label {
	if score > 0 {
		return dataset.Spam
	}
	return dataset.Ham
}

// envelope is the on-disk wrapper that records the kind before the payload.
type envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"model"`
}

// Marshal serialises a classifier with its kind.
func Marshal(c Classifier) ([]byte, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: c.Kind(), Payload: payload})
}

// Unmarshal restores a classifier written by Marshal.
func Unmarshal(data []byte) (Classifier, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case KindSVM:
		var m LinearSVM
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		return &m, nil
	case KindXGB:
		var m BoostedTrees
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, err
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", env.Kind)
	}
}
