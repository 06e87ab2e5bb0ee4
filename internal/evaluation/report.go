// Package evaluation scores a trained classifier against held-out data.
package evaluation

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"spam-classifier/internal/dataset"
	"spam-classifier/internal/model"
	"spam-classifier/internal/sparse"
)

// ClassMetrics are the per-class scores.
type ClassMetrics struct {
	Precision float64 `yaml:"precision"`
	Recall    float64 `yaml:"recall"`
	F1        float64 `yaml:"f1"`
	Support   int     `yaml:"support"`
}

// Report is the outcome of one evaluation. Confusion is indexed
// [true][predicted] by dataset.Label.
type Report struct {
	Model     model.Kind              `yaml:"model"`
	Accuracy  float64                 `yaml:"accuracy"`
	Classes   map[string]ClassMetrics `yaml:"classes"`
	Macro     ClassMetrics            `yaml:"macro_avg"`
	Weighted  ClassMetrics            `yaml:"weighted_avg"`
	Confusion [2][2]int               `yaml:"confusion_matrix,flow"`
	Samples   int                     `yaml:"samples"`
}

// Evaluate predicts every row of X and compares against y.
func Evaluate(clf model.Classifier, X sparse.Matrix, y []dataset.Label) (Report, error) {
	if X.Len() != len(y) {
		return Report{}, fmt.Errorf("%d rows but %d labels", X.Len(), len(y))
	}
	pred := make([]dataset.Label, len(y))
	for i, row := range X.Rows {
		pred[i] = clf.Predict(row)
	}
	r := FromPredictions(y, pred)
	r.Model = clf.Kind()
	return r, nil
}

// FromPredictions builds a report from true and predicted labels.
func FromPredictions(truth, pred []dataset.Label) Report {
	r := Report{Samples: len(truth), Classes: make(map[string]ClassMetrics)}
	var hit int
	for i := range truth {
		r.Confusion[truth[i]][pred[i]]++
		if truth[i] == pred[i] {
			hit++
		}
	}
	if len(truth) > 0 {
		r.Accuracy = float64(hit) / float64(len(truth))
	}

	n := len(dataset.Labels)
	precision, recall, f1 := make([]float64, n), make([]float64, n), make([]float64, n)
	support := make([]float64, n)
	for k, l := range dataset.Labels {
		tp := r.Confusion[l][l]
		var predicted, actual int
		for _, o := range dataset.Labels {
			predicted += r.Confusion[o][l]
			actual += r.Confusion[l][o]
		}
		cm := ClassMetrics{
			Precision: ratio(tp, predicted),
			Recall:    ratio(tp, actual),
			Support:   actual,
		}
		if cm.Precision+cm.Recall > 0 {
			cm.F1 = 2 * cm.Precision * cm.Recall / (cm.Precision + cm.Recall)
		}
		r.Classes[l.String()] = cm
		precision[k], recall[k], f1[k] = cm.Precision, cm.Recall, cm.F1
		support[k] = float64(actual)
	}

	r.Macro.Precision = stat.Mean(precision, nil)
	r.Macro.Recall = stat.Mean(recall, nil)
	r.Macro.F1 = stat.Mean(f1, nil)
	// Support-weighted means are undefined without samples.
	if len(truth) > 0 {
		r.Weighted.Precision = stat.Mean(precision, support)
		r.Weighted.Recall = stat.Mean(recall, support)
		r.Weighted.F1 = stat.Mean(f1, support)
	}
	r.Macro.Support = len(truth)
	r.Weighted.Support = len(truth)
	return r
}

// ratio returns 0 for an empty denominator, like zero_division=0.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// WriteText renders the human-readable classification report.
func (r Report) WriteText(w io.Writer) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("Model: %s\n", r.Model)
	printf("Accuracy: %.4f\n\n", r.Accuracy)
	printf("%12s %10s %10s %10s %10s\n\n", "", "precision", "recall", "f1-score", "support")
	for _, l := range dataset.Labels {
		cm := r.Classes[l.String()]
		printf("%12s %10.2f %10.2f %10.2f %10d\n", l.String(), cm.Precision, cm.Recall, cm.F1, cm.Support)
	}
	printf("\n%12s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.Samples)
	printf("%12s %10.2f %10.2f %10.2f %10d\n", "macro avg", r.Macro.Precision, r.Macro.Recall, r.Macro.F1, r.Macro.Support)
	printf("%12s %10.2f %10.2f %10.2f %10d\n", "weighted avg", r.Weighted.Precision, r.Weighted.Recall, r.Weighted.F1, r.Weighted.Support)

	printf("\nConfusion matrix (rows: true, columns: predicted)\n")
	printf("%12s %8s %8s\n", "", dataset.Ham.String(), dataset.Spam.String())
	for _, l := range dataset.Labels {
		printf("%12s %8d %8d\n", l.String(), r.Confusion[l][dataset.Ham], r.Confusion[l][dataset.Spam])
	}
	return err
}

// WriteYAML writes the machine-readable summary.
func (r Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
