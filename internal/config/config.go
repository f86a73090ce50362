package config

import (
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "ENGRAM_CONFIG"

	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	vaultPathEnv     = "VAULT_PATH"
	noteIndexEnv     = "NOTE_INDEX_PATH"
	gitEnabledEnv    = "GIT_ENABLED"

	openAIKeyEnv       = "OPENAI_API_KEY"
	openAIModelEnv     = "OPENAI_MODEL"
	openAIBaseURLEnv   = "OPENAI_BASE_URL"
	deepSeekKeyEnv     = "DEEPSEEK_API_KEY"
	deepSeekModelEnv   = "DEEPSEEK_MODEL"
	deepSeekBaseURLEnv = "DEEPSEEK_BASE_URL"
	defaultLLMEnv      = "DEFAULT_LLM"
	groqKeyEnv         = "GROQ_API_KEY"
	groqWhisperEnv     = "GROQ_WHISPER_MODEL"
	logLevelEnv        = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Telegram TelegramConfig `yaml:"telegram"`
	Vault    VaultConfig    `yaml:"vault"`
	LLM      LLMConfig      `yaml:"llm"`
	Whisper  WhisperConfig  `yaml:"whisper"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// TelegramConfig wires the bot transport credential.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
}

// VaultConfig describes the notes vault and its version-control sync.
type VaultConfig struct {
	Path         string `yaml:"path"`
	IndexPath    string `yaml:"indexPath"`
	GitEnabled   bool   `yaml:"gitEnabled"`
	GitUserName  string `yaml:"gitUserName"`
	GitUserEmail string `yaml:"gitUserEmail"`
}

// LLMConfig groups chat-completion providers and the default selector.
type LLMConfig struct {
	Default  string         `yaml:"default"`
	OpenAI   ProviderConfig `yaml:"openai"`
	DeepSeek ProviderConfig `yaml:"deepseek"`
}

// ProviderConfig defines how to contact one chat-completion API.
type ProviderConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseUrl"`
}

// WhisperConfig describes the audio transcription fallback.
type WhisperConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(vaultPathEnv); v != "" {
		c.Vault.Path = v
	}
	if v := os.Getenv(noteIndexEnv); v != "" {
		c.Vault.IndexPath = v
	}
	if v := os.Getenv(gitEnabledEnv); v != "" {
		c.Vault.GitEnabled = parseBool(v, c.Vault.GitEnabled)
	}

	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.LLM.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.LLM.OpenAI.Model = v
	}
	if v := os.Getenv(openAIBaseURLEnv); v != "" {
		c.LLM.OpenAI.BaseURL = v
	}
	if v := os.Getenv(deepSeekKeyEnv); v != "" {
		c.LLM.DeepSeek.APIKey = v
	}
	if v := os.Getenv(deepSeekModelEnv); v != "" {
		c.LLM.DeepSeek.Model = v
	}
	if v := os.Getenv(deepSeekBaseURLEnv); v != "" {
		c.LLM.DeepSeek.BaseURL = v
	}
	if v := os.Getenv(defaultLLMEnv); v != "" {
		c.LLM.Default = v
	}

	if v := os.Getenv(groqKeyEnv); v != "" {
		c.Whisper.APIKey = v
	}
	if v := os.Getenv(groqWhisperEnv); v != "" {
		c.Whisper.Model = v
	}
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}

	if override.Vault.Path != "" {
		base.Vault.Path = override.Vault.Path
	}
	if override.Vault.IndexPath != "" {
		base.Vault.IndexPath = override.Vault.IndexPath
	}
	if override.Vault.GitUserName != "" {
		base.Vault.GitUserName = override.Vault.GitUserName
	}
	if override.Vault.GitUserEmail != "" {
		base.Vault.GitUserEmail = override.Vault.GitUserEmail
	}

	if override.LLM.Default != "" {
		base.LLM.Default = override.LLM.Default
	}
	base.LLM.OpenAI = mergeProvider(base.LLM.OpenAI, override.LLM.OpenAI)
	base.LLM.DeepSeek = mergeProvider(base.LLM.DeepSeek, override.LLM.DeepSeek)

	if override.Whisper.APIKey != "" {
		base.Whisper.APIKey = override.Whisper.APIKey
	}
	if override.Whisper.Model != "" {
		base.Whisper.Model = override.Whisper.Model
	}

	return base
}

func mergeProvider(base, override ProviderConfig) ProviderConfig {
	if override.APIKey != "" {
		base.APIKey = override.APIKey
	}
	if override.Model != "" {
		base.Model = override.Model
	}
	if override.BaseURL != "" {
		base.BaseURL = override.BaseURL
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Telegram: TelegramConfig{BotToken: ""},
		Vault: VaultConfig{
			Path:         "",
			IndexPath:    "",
			GitEnabled:   true,
			GitUserName:  "Engram Bot",
			GitUserEmail: "bot@engram.local",
		},
		LLM: LLMConfig{
			Default: "openai",
			OpenAI: ProviderConfig{
				Model:   "gpt-4o-mini",
				BaseURL: "https://api.openai.com/v1",
			},
			DeepSeek: ProviderConfig{
				Model:   "deepseek-chat",
				BaseURL: "https://api.deepseek.com/v1",
			},
		},
		Whisper: WhisperConfig{
			Model: "whisper-large-v3-turbo",
		},
	}
}
