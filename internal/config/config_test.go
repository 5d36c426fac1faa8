package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"INTERVU_PORT", "INTERVU_API_TOKEN", "INTERVU_LLM_API_KEY", "OPENAI_API_KEY",
		"INTERVU_LLM_BASE_URL", "INTERVU_LLM_MODEL", "INTERVU_DATA_DIR",
		"INTERVU_NUM_QUESTIONS", "INTERVU_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 4600 {
		t.Errorf("Port = %d, want 4600", cfg.Server.Port)
	}
	if cfg.LLM.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("BaseURL = %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
	if cfg.Interview.NumQuestions != 5 {
		t.Errorf("NumQuestions = %d, want 5", cfg.Interview.NumQuestions)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("DataDir is empty")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("INTERVU_PORT", "9999")
	t.Setenv("INTERVU_API_TOKEN", "secret")
	t.Setenv("INTERVU_LLM_API_KEY", "sk-abc")
	t.Setenv("INTERVU_LLM_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("INTERVU_LLM_MODEL", "llama3.1")
	t.Setenv("INTERVU_DATA_DIR", "/tmp/intervu-test")
	t.Setenv("INTERVU_NUM_QUESTIONS", "7")
	t.Setenv("INTERVU_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Server.Token != "secret" {
		t.Errorf("Token = %q", cfg.Server.Token)
	}
	if cfg.LLM.APIKey != "sk-abc" {
		t.Errorf("APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("BaseURL = %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Model != "llama3.1" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
	if cfg.Storage.DataDir != "/tmp/intervu-test" {
		t.Errorf("DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Interview.NumQuestions != 7 {
		t.Errorf("NumQuestions = %d", cfg.Interview.NumQuestions)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadOpenAIKeyFallback(t *testing.T) {
	t.Setenv("INTERVU_LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "sk-fallback" {
		t.Errorf("APIKey = %q, want OPENAI_API_KEY fallback", cfg.LLM.APIKey)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	t.Setenv("INTERVU_PORT", "not-a-port")
	if _, err := Load(); err == nil {
		t.Error("Load succeeded with invalid port, want error")
	}
	t.Setenv("INTERVU_PORT", "")

	t.Setenv("INTERVU_NUM_QUESTIONS", "0")
	if _, err := Load(); err == nil {
		t.Error("Load succeeded with zero question count, want error")
	}
}
