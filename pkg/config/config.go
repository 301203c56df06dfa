package config

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/aomail-ai/knowledge/pkg/helpers"
)

type Config struct {
	CompletionsAPIURL string
	CompletionsAPIKey string
	SelectionModel    string
	AnswerModel       string
	HTTPPort          string
	DBPath            string
	NatsURL           string
	LLMTimeout        time.Duration
	AllowedOrigin     string
	DefaultLanguage   string
}

func getEnv(key, defaultValue string, printEnv bool) string {
	value := helpers.GetEnv(key, defaultValue)
	if printEnv {
		log.Default().Info("Env", "key", key, "value", value)
	}
	return value
}

func LoadConfig(printEnv bool) (*Config, error) {
	_ = helpers.LoadEnvFile(3)

	llmTimeout, err := time.ParseDuration(getEnv("LLM_TIMEOUT", "30s", printEnv))
	if err != nil {
		return nil, err
	}

	conf := &Config{
		CompletionsAPIURL: getEnv("COMPLETIONS_API_URL", "https://api.openai.com/v1", printEnv),
		CompletionsAPIKey: getEnv("COMPLETIONS_API_KEY", "", printEnv),
		SelectionModel:    getEnv("SELECTION_MODEL", "gpt-4.1-mini", printEnv),
		AnswerModel:       getEnv("ANSWER_MODEL", "gpt-4.1-mini", printEnv),
		HTTPPort:          getEnv("HTTP_PORT", "8080", printEnv),
		DBPath:            getEnv("DB_PATH", "./output/sqlite/knowledge.db", printEnv),
		NatsURL:           getEnv("NATS_URL", "", printEnv),
		LLMTimeout:        llmTimeout,
		AllowedOrigin:     getEnv("ALLOWED_ORIGIN", "*", printEnv),
		DefaultLanguage:   getEnv("DEFAULT_LANGUAGE", "english", printEnv),
	}

	return conf, nil
}
