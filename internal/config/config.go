// Package config loads platform configuration from a JSON file with
// environment variables taking highest precedence. Missing config files are
// created with defaults on first run.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	LogLevel      string `json:"log_level"`
	MaxToolRounds int    `json:"max_tool_rounds"`
	Postgres      struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		User     string `json:"user"`
		Password string `json:"password"`
		Database string `json:"database"`
	} `json:"postgres"`
	Qdrant struct {
		Host       string `json:"host"`
		Port       int    `json:"port"`
		Collection string `json:"collection"`
	} `json:"qdrant"`
	LLM struct {
		BaseURL     string  `json:"base_url"`
		APIKey      string  `json:"api_key"`
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float32 `json:"temperature"`
	} `json:"llm"`
	Embedding struct {
		BaseURL    string `json:"base_url"`
		APIKey     string `json:"api_key"`
		Model      string `json:"model"`
		Dimensions int    `json:"dimensions"`
	} `json:"embedding"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LogLevel = "info"
	cfg.MaxToolRounds = 10
	cfg.Postgres.Host = "localhost"
	cfg.Postgres.Port = 5432
	cfg.Postgres.User = "postgres"
	cfg.Postgres.Database = "crm"
	cfg.Qdrant.Host = "localhost"
	cfg.Qdrant.Port = 6334
	cfg.Qdrant.Collection = "synthetic_documents"
	cfg.LLM.BaseURL = "https://openrouter.ai/api/v1"
	cfg.LLM.Model = "openai/gpt-4o-mini"
	cfg.LLM.MaxTokens = 2000
	cfg.Embedding.BaseURL = "http://localhost:8080/v1"
	cfg.Embedding.Model = "sentence-transformers/all-MiniLM-L6-v2"
	cfg.Embedding.Dimensions = 384

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	setEnvString(&cfg.Postgres.Host, "POSTGRES_HOST")
	setEnvInt(&cfg.Postgres.Port, "POSTGRES_PORT")
	setEnvString(&cfg.Postgres.User, "POSTGRES_USER")
	setEnvString(&cfg.Postgres.Password, "POSTGRES_PASSWORD")
	setEnvString(&cfg.Postgres.Database, "POSTGRES_DB")
	setEnvString(&cfg.Qdrant.Host, "QDRANT_HOST")
	setEnvInt(&cfg.Qdrant.Port, "QDRANT_PORT")
	setEnvString(&cfg.Qdrant.Collection, "COLLECTION_NAME")
	setEnvString(&cfg.LLM.APIKey, "OPENROUTER_API_KEY")
	setEnvString(&cfg.LLM.BaseURL, "OPENROUTER_BASE_URL")
	setEnvString(&cfg.LLM.Model, "LLM_MODEL")
	setEnvString(&cfg.Embedding.BaseURL, "EMBEDDING_BASE_URL")
	setEnvString(&cfg.Embedding.Model, "EMBEDDING_MODEL_NAME")

	return cfg, nil
}

// PostgresDSN builds the connection string for the relational store.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Postgres.Host, c.Postgres.Port),
		Path:   "/" + c.Postgres.Database,
	}
	if c.Postgres.User != "" {
		if c.Postgres.Password != "" {
			u.User = url.UserPassword(c.Postgres.User, c.Postgres.Password)
		} else {
			u.User = url.User(c.Postgres.User)
		}
	}
	q := u.Query()
	q.Set("sslmode", "disable")
	u.RawQuery = q.Encode()
	return u.String()
}

func setEnvString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setEnvInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func writeDefaults(path string, cfg *Config) error {
	return Save(path, cfg)
}

// Save writes the config atomically, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
