package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".civimon"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .civimon configuration file.
// Everything in it is optional; missing sections fall back to defaults.
type File struct {
	// Relevance overrides the heuristic keyword sets, weights, and
	// thresholds. Partial overrides are allowed.
	Relevance *Relevance `yaml:"relevance,omitempty"`

	// HeuristicPaths replaces the default seed path suffixes.
	HeuristicPaths []string `yaml:"heuristicPaths,omitempty"`

	// UserAgent overrides the HTTP User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// LLM configures the classification endpoint. The API key is never
	// read from the file; it comes from the CIVIMON_LLM_API_KEY
	// environment variable.
	LLM struct {
		Endpoint string `yaml:"endpoint,omitempty"`
		Model    string `yaml:"model,omitempty"`
		MaxChars int    `yaml:"maxChars,omitempty"`
	} `yaml:"llm,omitempty"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound; callers decide
// whether that is fatal based on whether the path was explicit.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .civimon in the current directory
// 3. Look for .civimon in the user's home directory
//
// Returns the path if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Apply merges the file's settings into the config. Only fields the file
// actually sets are copied; everything else keeps its current value.
func (cf *File) Apply(c *Config) {
	if cf.Relevance != nil {
		r := *cf.Relevance
		r.ApplyDefaults()
		c.Relevance = r
	}
	if len(cf.HeuristicPaths) > 0 {
		c.HeuristicPaths = cf.HeuristicPaths
	}
	if cf.UserAgent != "" {
		c.UserAgent = cf.UserAgent
	}
	if cf.LLM.Endpoint != "" {
		c.LLMEndpoint = cf.LLM.Endpoint
	}
	if cf.LLM.Model != "" {
		c.LLMModel = cf.LLM.Model
	}
	if cf.LLM.MaxChars > 0 {
		c.LLMMaxChars = cf.LLM.MaxChars
	}
}
