package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/gardener-conformance/pkg/scenario"
)

const (
	// DefaultFile is read from the working directory when present
	DefaultFile = "conformance.toml"
	envPrefix   = "CONFORMANCE_"
)

// Testdata overrides the fixture tree of single languages
type Testdata struct {
	C      string `koanf:"c"`
	Python string `koanf:"python"`
	Ruby   string `koanf:"ruby"`
}

// Config holds all configuration for the application
type Config struct {
	Analyzer     string   `koanf:"analyzer"`
	Simulate     bool     `koanf:"simulate"`
	TestdataDir  string   `koanf:"testdata-dir"`
	Testdata     Testdata `koanf:"testdata"`
	MaxJobs      int      `koanf:"max-jobs"`
	Repeats      int      `koanf:"repeats"`
	Suites       []string `koanf:"suites"`
	Report       string   `koanf:"report"`
	ReportFormat string   `koanf:"report-format"`
	Serve        bool     `koanf:"serve"`
	Port         int      `koanf:"port"`
	Watch        bool     `koanf:"watch"`
	Verbosity    string   `koanf:"verbosity"`
	VerboseCnt   int      `koanf:"verbose"`
	LogJSON      bool     `koanf:"log-json"`
}

// Trees resolves the fixture tree of every language that has one. The
// testdata-dir is the parent of the c, py and rb trees.
func (c *Config) Trees() map[scenario.Language]string {
	trees := make(map[scenario.Language]string)
	set := func(lang scenario.Language, explicit string, rel ...string) {
		switch {
		case explicit != "":
			trees[lang] = explicit
		case c.TestdataDir != "":
			trees[lang] = filepath.Join(append([]string{c.TestdataDir}, rel...)...)
		}
	}
	set(scenario.LanguageC, c.Testdata.C, "c")
	set(scenario.LanguagePython, c.Testdata.Python, "py", "graph_test_files")
	set(scenario.LanguageRuby, c.Testdata.Ruby, "rb")
	return trees
}

// Validate reports configuration errors that would make every case fail
func (c *Config) Validate() error {
	if c.MaxJobs < 1 {
		return fmt.Errorf("max-jobs must be at least 1, got %d", c.MaxJobs)
	}
	if c.Repeats < 1 {
		return fmt.Errorf("repeats must be at least 1, got %d", c.Repeats)
	}
	if !c.Simulate && c.Analyzer == "" {
		return fmt.Errorf("no analyzer given")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFile(f, DefaultFile)
}

// LoadFile is Load with an explicit config file path
func LoadFile(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"analyzer":      "include_gardener",
		"simulate":      false,
		"testdata-dir":  "",
		"max-jobs":      4,
		"repeats":       10,
		"suites":        []string{},
		"report":        "",
		"report-format": "",
		"serve":         false,
		"port":          8080,
		"watch":         false,
		"verbosity":     "",
		"verbose":       0,
		"log-json":      false,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional)
	// We ignore errors here as the file might not exist
	if path != "" {
		_ = k.Load(file.Provider(path), toml.Parser())
	}

	// 3. Environment Variables
	// Prefix: CONFORMANCE_ (e.g., CONFORMANCE_MAX_JOBS=8, CONFORMANCE_TESTDATA_C=/src/c)
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// envKey maps CONFORMANCE_TESTDATA_C to testdata.c and CONFORMANCE_MAX_JOBS
// to max-jobs
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	if key == "testdata_dir" {
		return "testdata-dir"
	}
	if rest, ok := strings.CutPrefix(key, "testdata_"); ok {
		return "testdata." + rest
	}
	return strings.ReplaceAll(key, "_", "-")
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
