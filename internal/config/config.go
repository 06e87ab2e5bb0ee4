package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"spam-classifier/internal/model"
	"spam-classifier/internal/pipeline"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port  string `yaml:"port"`
		Model string `yaml:"model"` // svm or xgb
	} `yaml:"server"`

	Client struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"client"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Data struct {
		RawPath      string `yaml:"raw_path"`
		CleanPath    string `yaml:"clean_path"`
		BalancedPath string `yaml:"balanced_path"`
	} `yaml:"data"`

	Artifacts struct {
		Dir string `yaml:"dir"`
	} `yaml:"artifacts"`

	Reports struct {
		Dir string `yaml:"dir"`
	} `yaml:"reports"`

	Log struct {
		Format string `yaml:"format"` // console or json
	} `yaml:"log"`

	Training pipeline.Options `yaml:"training"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	config := &Config{Training: pipeline.DefaultOptions()}
	config.setDefaults()
	return config
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{Training: pipeline.DefaultOptions()}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.setDefaults()

	if _, err := model.ParseKind(config.Server.Model); err != nil {
		return nil, fmt.Errorf("invalid server.model: %w", err)
	}
	return config, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8000"
	}
	if c.Server.Model == "" {
		c.Server.Model = string(model.KindSVM)
	}
	if c.Client.BaseURL == "" {
		c.Client.BaseURL = "http://localhost:" + c.Server.Port
	}
	if c.Client.Timeout == 0 {
		c.Client.Timeout = 30 * time.Second
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/prompts.db"
	}
	if c.Data.RawPath == "" {
		c.Data.RawPath = "./data/spam_ham_dataset.csv"
	}
	if c.Data.CleanPath == "" {
		c.Data.CleanPath = "./data/cleaned_spam_data.csv"
	}
	if c.Data.BalancedPath == "" {
		c.Data.BalancedPath = "./data/final_balanced_spam_data.csv"
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = "./artifacts"
	}
	if c.Reports.Dir == "" {
		c.Reports.Dir = "./reports"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}

	// Expand environment variables in paths
	c.Database.Path = os.ExpandEnv(c.Database.Path)
	c.Data.RawPath = os.ExpandEnv(c.Data.RawPath)
	c.Data.CleanPath = os.ExpandEnv(c.Data.CleanPath)
	c.Data.BalancedPath = os.ExpandEnv(c.Data.BalancedPath)
	c.Artifacts.Dir = os.ExpandEnv(c.Artifacts.Dir)
	c.Reports.Dir = os.ExpandEnv(c.Reports.Dir)
	c.Client.BaseURL = os.ExpandEnv(c.Client.BaseURL)
}

// NewLogger builds the zap logger selected by log.format.
func (c *Config) NewLogger() (*zap.Logger, error) {
	switch c.Log.Format {
	case "json":
		return zap.NewProduction()
	case "console":
		return zap.NewDevelopment()
	default:
		return nil, fmt.Errorf("unknown log format %q (expected console|json)", c.Log.Format)
	}
}
