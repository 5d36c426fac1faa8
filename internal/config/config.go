package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	LLM       LLMConfig
	Storage   StorageConfig
	Interview InterviewConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port  int
	Token string // bearer token for the API; empty disables auth
}

type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type StorageConfig struct {
	DataDir string
}

type InterviewConfig struct {
	NumQuestions int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Interview: InterviewConfig{
			NumQuestions: 5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".intervu"
	}
	return filepath.Join(base, "intervu")
}

// Load reads configuration from a .env file in the working directory (if
// present) and INTERVU_* environment variables over built-in defaults. The
// LLM API key may also come from OPENAI_API_KEY. The key is not required
// here: client-side commands work without one, and the serve path validates
// it separately.
func Load() (Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := defaults()

	if v := os.Getenv("INTERVU_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid INTERVU_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("INTERVU_API_TOKEN"); v != "" {
		cfg.Server.Token = v
	}
	if v := os.Getenv("INTERVU_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("INTERVU_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("INTERVU_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("INTERVU_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("INTERVU_NUM_QUESTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid INTERVU_NUM_QUESTIONS %q", v)
		}
		cfg.Interview.NumQuestions = n
	}
	if v := os.Getenv("INTERVU_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg, nil
}
