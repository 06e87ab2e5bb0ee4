package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spam-classifier/internal/apperr"
	"spam-classifier/internal/dataset"
	"spam-classifier/internal/sparse"
	"spam-classifier/internal/textnorm"
	"spam-classifier/internal/tfidf"
)

func corpus(t *testing.T) (*tfidf.Vectorizer, sparse.Matrix, []dataset.Label) {
	t.Helper()
	records, err := dataset.LoadCSV("../../testdata/emails.csv")
	require.NoError(t, err)
	records = dataset.Normalize(records)

	vec, err := tfidf.Fit(dataset.Texts(records), tfidf.DefaultOptions())
	require.NoError(t, err)
	vec.Version = "test-vectorizer"
	return vec, vec.TransformAll(dataset.Texts(records)), dataset.LabelsOf(records)
}

func testParams() Params {
	p := DefaultParams()
	p.XGB.Estimators = 50
	p.VectorizerVersion = "test-vectorizer"
	return p
}

func accuracy(c Classifier, X sparse.Matrix, y []dataset.Label) float64 {
	var hit int
	for i, row := range X.Rows {
		if c.Predict(row) == y[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(y))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("xgb")
	require.NoError(t, err)
	assert.Equal(t, KindXGB, k)

	_, err = ParseKind("forest")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestTrainRejectsDegenerateInput(t *testing.T) {
	one := sparse.NewVector(map[int]float64{0: 1})
	tests := []struct {
		name string
		X    sparse.Matrix
		y    []dataset.Label
	}{
		{name: "empty", X: sparse.Matrix{Dim: 1}},
		{name: "length mismatch", X: sparse.Matrix{Dim: 1, Rows: []sparse.Vector{one}}, y: []dataset.Label{dataset.Ham, dataset.Spam}},
		{name: "single class", X: sparse.Matrix{Dim: 1, Rows: []sparse.Vector{one, one}}, y: []dataset.Label{dataset.Spam, dataset.Spam}},
		{name: "bad label", X: sparse.Matrix{Dim: 1, Rows: []sparse.Vector{one, one}}, y: []dataset.Label{dataset.Ham, dataset.Label(7)}},
	}
	for _, tt := range tests {
		for _, kind := range Kinds {
			t.Run(tt.name+"/"+string(kind), func(t *testing.T) {
				_, err := Train(kind, tt.X, tt.y, testParams())
				assert.ErrorIs(t, err, apperr.ErrTraining)
			})
		}
	}
}

func TestTrainRejectsInvalidXGBParams(t *testing.T) {
	X := sparse.Matrix{Dim: 1, Rows: []sparse.Vector{
		sparse.NewVector(map[int]float64{0: 1}),
		sparse.NewVector(map[int]float64{0: 2}),
	}}
	y := []dataset.Label{dataset.Ham, dataset.Spam}

	tests := []struct {
		name   string
		mutate func(*XGBParams)
	}{
		{name: "no estimators", mutate: func(p *XGBParams) { p.Estimators = 0 }},
		{name: "no depth", mutate: func(p *XGBParams) { p.MaxDepth = 0 }},
		{name: "negative learning rate", mutate: func(p *XGBParams) { p.LearningRate = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p.XGB)
			_, err := Train(KindXGB, X, y, p)
			assert.ErrorIs(t, err, apperr.ErrTraining)
		})
	}
}

func TestSVMSeparatesCorpus(t *testing.T) {
	vec, X, y := corpus(t)
	clf, err := Train(KindSVM, X, y, testParams())
	require.NoError(t, err)

	assert.Equal(t, KindSVM, clf.Kind())
	assert.Equal(t, "test-vectorizer", clf.VectorizerVersion())
	assert.GreaterOrEqual(t, accuracy(clf, X, y), 0.9)

	spam := vec.Transform(textnorm.Normalize("Win a free prize now!!!"))
	ham := vec.Transform(textnorm.Normalize("Let's meet for lunch tomorrow"))
	assert.Equal(t, dataset.Spam, clf.Predict(spam))
	assert.Equal(t, dataset.Ham, clf.Predict(ham))
	assert.Greater(t, clf.PredictProba(spam), clf.PredictProba(ham))
}

func TestXGBFitsCorpus(t *testing.T) {
	_, X, y := corpus(t)
	clf, err := Train(KindXGB, X, y, testParams())
	require.NoError(t, err)

	bt := clf.(*BoostedTrees)
	assert.Len(t, bt.Trees, 50)
	require.NoError(t, bt.validate())
	assert.GreaterOrEqual(t, accuracy(clf, X, y), 0.9)

	for _, row := range X.Rows {
		p := clf.PredictProba(row)
		assert.True(t, p > 0 && p < 1)
	}
}

func TestTrainingIsDeterministic(t *testing.T) {
	_, X, y := corpus(t)
	for _, kind := range Kinds {
		a, err := Train(kind, X, y, testParams())
		require.NoError(t, err)
		b, err := Train(kind, X, y, testParams())
		require.NoError(t, err)

		ab, err := Marshal(a)
		require.NoError(t, err)
		bb, err := Marshal(b)
		require.NoError(t, err)
		assert.JSONEq(t, string(ab), string(bb), "kind %s", kind)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	_, X, y := corpus(t)
	for _, kind := range Kinds {
		clf, err := Train(kind, X, y, testParams())
		require.NoError(t, err)

		data, err := Marshal(clf)
		require.NoError(t, err)
		restored, err := Unmarshal(data)
		require.NoError(t, err)

		assert.Equal(t, kind, restored.Kind())
		for _, row := range X.Rows {
			assert.InDelta(t, clf.DecisionFunction(row), restored.DecisionFunction(row), 1e-9)
		}
	}
}

func TestUnmarshalRejectsCorruptTrees(t *testing.T) {
	_, err := Unmarshal([]byte(`{"kind":"xgb","model":{"trees":[[{"f":0,"t":0.5,"l":0,"r":9}]]}}`))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"kind":"forest","model":{}}`))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`not json`))
	assert.Error(t, err)
}

func TestBoostedTreesSplitOnThreshold(t *testing.T) {
	X := sparse.Matrix{Dim: 1}
	var y []dataset.Label
	for i := 0; i < 10; i++ {
		X.Rows = append(X.Rows, sparse.NewVector(map[int]float64{0: float64(i)}))
		if i >= 5 {
			y = append(y, dataset.Spam)
		} else {
			y = append(y, dataset.Ham)
		}
	}
	p := testParams()
	p.XGB.Estimators = 20
	p.XGB.MinChildWeight = 0
	clf, err := Train(KindXGB, X, y, p)
	require.NoError(t, err)

	root := clf.(*BoostedTrees).Trees[0][0]
	assert.Equal(t, 0, root.Feature)
	assert.InDelta(t, 4.5, root.Threshold, 1e-12)
	assert.Equal(t, 1.0, accuracy(clf, X, y))
}

func TestPlattScaling(t *testing.T) {
	dec := []float64{-3, -2, -1.5, -1, -0.5, 0.5, 1, 1.5, 2, 3}
	y := []dataset.Label{
		dataset.Ham, dataset.Ham, dataset.Ham, dataset.Ham, dataset.Spam,
		dataset.Ham, dataset.Spam, dataset.Spam, dataset.Spam, dataset.Spam,
	}
	a, b := sigmoidTrain(dec, y)
	assert.Less(t, a, 0.0)

	prev := 0.0
	for _, f := range []float64{-4, -1, 0, 1, 4} {
		p := sigmoidPredict(f, a, b)
		assert.Greater(t, p, prev)
		prev = p
	}
	assert.InDelta(t, 0.5, sigmoidPredict(0, a, b), 0.2)
}

func TestPlattScalingReachesStationaryPoint(t *testing.T) {
	dec := []float64{-2.5, -1.2, -0.7, -0.1, 0.3, 0.4, 0.9, 1.8, 2.2, 3.1}
	y := []dataset.Label{
		dataset.Ham, dataset.Ham, dataset.Spam, dataset.Ham, dataset.Ham,
		dataset.Spam, dataset.Spam, dataset.Ham, dataset.Spam, dataset.Spam,
	}
	a, b := sigmoidTrain(dec, y)

	hi, lo := (5.0+1)/(5.0+2), 1/(5.0+2)
	var ga, gb float64
	for i, d := range dec {
		target := lo
		if y[i] == dataset.Spam {
			target = hi
		}
		r := target - sigmoidPredict(d, a, b)
		ga += d * r
		gb += r
	}
	assert.InDelta(t, 0, ga, 1e-4)
	assert.InDelta(t, 0, gb, 1e-4)
}

func TestPlattScalingConstantScores(t *testing.T) {
	dec := []float64{0.5, 0.5, 0.5, 0.5}
	y := []dataset.Label{dataset.Ham, dataset.Spam, dataset.Spam, dataset.Spam}
	a, b := sigmoidTrain(dec, y)
	assert.False(t, math.IsNaN(a) || math.IsNaN(b))
	p := sigmoidPredict(0.5, a, b)
	assert.Greater(t, p, 0.5)
	assert.Less(t, p, 1.0)
}
