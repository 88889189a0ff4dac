package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Discord     DiscordConfig
	Sheets      SheetsConfig
	OCR         OCRConfig
	Workers     WorkersConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Path string
}

type DiscordConfig struct {
	Token string
}

type SheetsConfig struct {
	CredentialsFile string
}

type OCRConfig struct {
	Languages     []string
	MaxImageBytes int64
}

type WorkersConfig struct {
	PoolSize int
}

func Load() (Config, error) {
	return load(true)
}

// LoadForTool loads config for CLI tools that do not talk to Discord.
func LoadForTool() (Config, error) {
	return load(false)
}

func load(requireToken bool) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("guildops_env", "")
	v.SetDefault("app_env", "")
	v.SetDefault("go_env", "")
	v.SetDefault("guildops_port", 8090)
	v.SetDefault("guildops_db_path", "data/guildops")
	v.SetDefault("discord_token", "")
	v.SetDefault("guildops_sheets_credentials", "service_account.json")
	v.SetDefault("guildops_ocr_languages", "")
	v.SetDefault("guildops_max_image_mb", 8)
	v.SetDefault("guildops_worker_pool", 4)

	env := resolveEnvironment(v)
	port := v.GetInt("guildops_port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid GUILDOPS_PORT: %d", port)
	}

	poolSize := v.GetInt("guildops_worker_pool")
	if poolSize <= 0 {
		poolSize = 4
	}
	if poolSize > 64 {
		poolSize = 64
	}

	maxImageMB := v.GetInt64("guildops_max_image_mb")
	if maxImageMB <= 0 {
		maxImageMB = 8
	}

	var languages []string
	for _, lang := range strings.Split(v.GetString("guildops_ocr_languages"), ",") {
		lang = strings.TrimSpace(lang)
		if lang != "" {
			languages = append(languages, lang)
		}
	}

	cfg := Config{
		Environment: env,
		Server:      ServerConfig{Port: port},
		Database: DatabaseConfig{
			Path: strings.TrimSpace(v.GetString("guildops_db_path")),
		},
		Discord: DiscordConfig{
			Token: strings.TrimSpace(v.GetString("discord_token")),
		},
		Sheets: SheetsConfig{
			CredentialsFile: strings.TrimSpace(v.GetString("guildops_sheets_credentials")),
		},
		OCR: OCRConfig{
			Languages:     languages,
			MaxImageBytes: maxImageMB << 20,
		},
		Workers: WorkersConfig{PoolSize: poolSize},
	}

	if strings.TrimSpace(cfg.Database.Path) == "" {
		cfg.Database.Path = "data/guildops"
	}
	if requireToken && cfg.Discord.Token == "" {
		return Config{}, fmt.Errorf("DISCORD_TOKEN is required")
	}

	return cfg, nil
}

func (c Config) IsLocalDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "", "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

func resolveEnvironment(v *viper.Viper) string {
	for _, key := range []string{"guildops_env", "app_env", "go_env"} {
		value := strings.TrimSpace(v.GetString(key))
		if value != "" {
			return strings.ToLower(value)
		}
	}
	return ""
}
