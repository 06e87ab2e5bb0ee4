// Package artifact persists the fitted vectorizer and trained models as one versioned
// bundle on disk.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spam-classifier/internal/apperr"
	"spam-classifier/internal/model"
	"spam-classifier/internal/tfidf"
)

const (
	VectorizerFile = "tfidf_vectorizer.json"
	ManifestFile   = "manifest.json"
)

// ModelFile returns the file name of a model kind inside a bundle.
func ModelFile(kind model.Kind) string {
	return "spam_" + string(kind) + ".json"
}

// NewVersion returns a fresh artifact version id.
func NewVersion() string {
	return uuid.NewString()
}

// SplitInfo records how the training partition was carved out of the dataset.
type SplitInfo struct {
	Seed          int64   `json:"seed"`
	TestRatio     float64 `json:"test_ratio"`
	Stratified    bool    `json:"stratified"`
	TrainSize     int     `json:"train_size"`
	TestSize      int     `json:"test_size"`
	DatasetSHA256 string  `json:"dataset_sha256"`
}

// Manifest describes a saved bundle. It is written last, so a bundle without a
// manifest is incomplete.
type Manifest struct {
	Version   string            `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Split     SplitInfo         `json:"split"`
	Files     map[string]string `json:"files"`
}

// Bundle is the in-memory form of an artifact directory.
type Bundle struct {
	Vectorizer *tfidf.Vectorizer
	Models     map[model.Kind]model.Classifier
	Split      SplitInfo
}

// Save writes the bundle into dir and returns its manifest.
func Save(dir string, b Bundle, logger *zap.Logger) (*Manifest, error) {
	if b.Vectorizer == nil {
		return nil, errors.New("bundle has no vectorizer")
	}
	if b.Vectorizer.Version == "" {
		b.Vectorizer.Version = NewVersion()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	manifest := &Manifest{
		Version:   b.Vectorizer.Version,
		CreatedAt: time.Now().UTC(),
		Split:     b.Split,
		Files:     make(map[string]string),
	}

	vecData, err := json.Marshal(b.Vectorizer)
	if err != nil {
		return nil, fmt.Errorf("failed to encode vectorizer: %w", err)
	}
	if err := writeFile(dir, VectorizerFile, vecData, manifest); err != nil {
		return nil, err
	}

	for _, kind := range model.Kinds {
		clf, ok := b.Models[kind]
		if !ok {
			continue
		}
		if clf.VectorizerVersion() != b.Vectorizer.Version {
			return nil, fmt.Errorf("model %s was trained against vectorizer %q, bundle has %q",
				kind, clf.VectorizerVersion(), b.Vectorizer.Version)
		}
		data, err := model.Marshal(clf)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s model: %w", kind, err)
		}
		if err := writeFile(dir, ModelFile(kind), data, manifest); err != nil {
			return nil, err
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := writeFile(dir, ManifestFile, data, nil); err != nil {
		return nil, err
	}

	logger.Info("Artifacts saved",
		zap.String("dir", dir),
		zap.String("version", manifest.Version),
		zap.Int("models", len(b.Models)))
	return manifest, nil
}

// writeFile replaces name atomically and records its checksum in m when m is set.
func writeFile(dir, name string, data []byte, m *Manifest) error {
	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if m != nil {
		m.Files[name] = checksum(data)
	}
	return nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ReadManifest loads the manifest of the bundle in dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrArtifactLoad, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: corrupt manifest: %v", apperr.ErrArtifactLoad, err)
	}
	if m.Version == "" {
		return nil, fmt.Errorf("%w: manifest has no version", apperr.ErrArtifactLoad)
	}
	return &m, nil
}

// Load reads the vectorizer and the requested models from dir. Either everything
// loads and verifies or an apperr.ErrArtifactLoad error is returned.
func Load(dir string, kinds ...model.Kind) (*Bundle, *Manifest, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, nil, err
	}

	vecData, err := readVerified(dir, VectorizerFile, m)
	if err != nil {
		return nil, nil, err
	}
	var vec tfidf.Vectorizer
	if err := json.Unmarshal(vecData, &vec); err != nil {
		return nil, nil, fmt.Errorf("%w: corrupt vectorizer: %v", apperr.ErrArtifactLoad, err)
	}
	if vec.Version != m.Version {
		return nil, nil, fmt.Errorf("%w: vectorizer version %q does not match manifest %q",
			apperr.ErrArtifactLoad, vec.Version, m.Version)
	}

	b := &Bundle{Vectorizer: &vec, Models: make(map[model.Kind]model.Classifier), Split: m.Split}
	for _, kind := range kinds {
		data, err := readVerified(dir, ModelFile(kind), m)
		if err != nil {
			return nil, nil, err
		}
		clf, err := model.Unmarshal(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: corrupt %s model: %v", apperr.ErrArtifactLoad, kind, err)
		}
		if clf.Kind() != kind {
			return nil, nil, fmt.Errorf("%w: %s holds a %s model", apperr.ErrArtifactLoad, ModelFile(kind), clf.Kind())
		}
		if clf.VectorizerVersion() != vec.Version {
			return nil, nil, fmt.Errorf("%w: %s model was trained against vectorizer %q, loaded %q",
				apperr.ErrArtifactLoad, kind, clf.VectorizerVersion(), vec.Version)
		}
		b.Models[kind] = clf
	}
	return b, m, nil
}

func readVerified(dir, name string, m *Manifest) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrArtifactLoad, err)
	}
	want, ok := m.Files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not listed in the manifest", apperr.ErrArtifactLoad, name)
	}
	if got := checksum(data); got != want {
		return nil, fmt.Errorf("%w: checksum mismatch for %s", apperr.ErrArtifactLoad, name)
	}
	return data, nil
}
