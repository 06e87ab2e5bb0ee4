package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const corpus = "../../testdata/emails.csv"

func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`
data:
  clean_path: %q
  balanced_path: %q
artifacts:
  dir: %q
reports:
  dir: %q
training:
  model:
    xgb:
      n_estimators: 20
`, corpus, filepath.Join(dir, "balanced.csv"), filepath.Join(dir, "artifacts"), filepath.Join(dir, "reports"))
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path, dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTrainEvaluateSample(t *testing.T) {
	cfg, dir := writeTestConfig(t)

	out, err := run(t, "--config", cfg, "train")
	require.NoError(t, err)
	assert.Contains(t, out, "svm held-out accuracy")
	assert.FileExists(t, filepath.Join(dir, "artifacts", "manifest.json"))

	out, err = run(t, "--config", cfg, "evaluate")
	require.NoError(t, err)
	assert.Contains(t, out, "Model: svm")
	assert.Contains(t, out, "Model: xgb")
	assert.FileExists(t, filepath.Join(dir, "reports", "svm_evaluation_report.txt"))
	assert.FileExists(t, filepath.Join(dir, "reports", "xgb_metrics.yaml"))

	out, err = run(t, "--config", cfg, "sample")
	require.NoError(t, err)
	assert.Contains(t, out, sampleEmails[0])

	out, err = run(t, "--config", cfg, "sample", "Win a free prize now!!!")
	require.NoError(t, err)
	assert.Contains(t, out, "svm  spam")
}

func TestSummaryAndBalance(t *testing.T) {
	cfg, dir := writeTestConfig(t)

	out, err := run(t, "--config", cfg, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Rows: 54")
	assert.Contains(t, out, "spam (1): 22")

	_, err = run(t, "--config", cfg, "balance")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "balanced.csv"))
}

func TestMissingExplicitConfig(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "nope.yml"), "summary")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAsk(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/predict", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"prediction": "spam"}) })
	router.POST("/api/savePrompt", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Prompt saved successfully!"})
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	cfg, _ := writeTestConfig(t)
	out, err := run(t, "--config", cfg, "ask", "--url", srv.URL, "--save", "free", "cash")
	require.NoError(t, err)
	assert.Equal(t, "spam\nPrompt saved successfully!\n", out)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/health", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
