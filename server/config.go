package server

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the server configuration. It is loaded once at process start and
// shared read-only across sessions.
type Config struct {
	// Address to listen on (e.g., ":8080")
	Listen string `toml:"listen"`

	// DBPath is the path to the SQLite turn log. Empty disables persistence;
	// use ":memory:" for an in-memory database.
	DBPath string `toml:"db_path"`

	// Debug enables debug logging.
	Debug bool `toml:"debug"`

	Gemini GeminiConfig `toml:"gemini"`
	Prompt PromptConfig `toml:"prompt"`
}

// GeminiConfig configures the generation backend.
type GeminiConfig struct {
	// APIKey for the Gemini API. The GEMINI_API_KEY environment variable
	// takes precedence so keys can stay out of config files.
	APIKey string `toml:"api_key"`

	// Model name; empty selects the default flash model.
	Model string `toml:"model"`

	// Timeout for one generation round trip.
	Timeout duration `toml:"timeout"`
}

// PromptConfig configures prompt composition.
type PromptConfig struct {
	// KnowledgePath points at a YAML knowledge-base file. Empty uses the
	// built-in knowledge base.
	KnowledgePath string `toml:"knowledge_path"`

	// MaxHistoryMessages bounds the history window sent to the backend.
	MaxHistoryMessages int `toml:"max_history_messages"`
}

// duration lets TOML carry durations as strings ("2m", "90s").
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Listen: ":8080",
		Gemini: GeminiConfig{
			Timeout: duration{2 * time.Minute},
		},
		Prompt: PromptConfig{
			MaxHistoryMessages: 20,
		},
	}
}

// LoadConfig reads a TOML config file and applies environment overrides. An
// empty path yields the defaults (plus overrides).
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &config); err != nil {
			return Config{}, fmt.Errorf("could not load config %s: %w", path, err)
		}
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if listen := os.Getenv("ICLGEN_LISTEN"); listen != "" {
		config.Listen = listen
	}
	if db := os.Getenv("ICLGEN_DB"); db != "" {
		config.DBPath = db
	}

	if config.Gemini.Timeout.Duration <= 0 {
		config.Gemini.Timeout = duration{2 * time.Minute}
	}

	return config, nil
}
