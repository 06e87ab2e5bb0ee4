package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"spam-classifier/internal/apperr"
	"spam-classifier/internal/artifact"
	"spam-classifier/internal/dataset"
	"spam-classifier/internal/model"
	"spam-classifier/internal/tfidf"
)

func fixture(t *testing.T) (*tfidf.Vectorizer, *model.LinearSVM) {
	t.Helper()
	vec, err := tfidf.Fit([]string{"win free prize", "lunch meeting tomorrow"}, tfidf.DefaultOptions())
	require.NoError(t, err)
	vec.Version = "v1"

	weights := make([]float64, vec.Dim())
	for i, term := range vec.Vocabulary {
		switch term {
		case "win", "free", "prize":
			weights[i] = 1
		case "lunch", "meeting", "tomorrow":
			weights[i] = -1
		}
	}
	return vec, &model.LinearSVM{Weights: weights, Vectorizer: "v1"}
}

func TestPredict(t *testing.T) {
	vec, clf := fixture(t)
	p, err := New(vec, clf)
	require.NoError(t, err)

	assert.Equal(t, dataset.Spam, p.Predict("WIN a FREE prize!!! http://spam.example").Label)
	assert.Equal(t, dataset.Ham, p.Predict("Lunch meeting tomorrow?").Label)
	// Nothing in the vocabulary scores exactly zero, which is ham.
	assert.Equal(t, dataset.Ham, p.Predict("1234 !!!").Label)
	assert.Equal(t, model.KindSVM, p.Kind())
	assert.Equal(t, "v1", p.Version())
}

func TestNewRejectsMismatchedVersions(t *testing.T) {
	vec, clf := fixture(t)
	clf.Vectorizer = "v2"
	_, err := New(vec, clf)
	assert.ErrorIs(t, err, apperr.ErrArtifactLoad)

	_, err = New(nil, clf)
	assert.ErrorIs(t, err, apperr.ErrArtifactLoad)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	vec, clf := fixture(t)
	_, err := artifact.Save(dir, artifact.Bundle{
		Vectorizer: vec,
		Models:     map[model.Kind]model.Classifier{model.KindSVM: clf},
	}, zap.NewNop())
	require.NoError(t, err)

	p, err := Load(dir, model.KindSVM, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, dataset.Spam, p.Predict("free prize").Label)

	_, err = Load(dir, model.KindXGB, zap.NewNop())
	assert.ErrorIs(t, err, apperr.ErrArtifactLoad)

	_, err = Load(t.TempDir(), model.KindSVM, zap.NewNop())
	assert.ErrorIs(t, err, apperr.ErrArtifactLoad)
}
