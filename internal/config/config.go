package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the server.
type Config struct {
	ServerAddr        string `yaml:"server_addr"`
	BaseURL           string `yaml:"base_url"`
	DownloadsDir      string `yaml:"downloads_dir"`
	YtDlpPath         string `yaml:"ytdlp_path"`
	FileExpiryHours   int    `yaml:"file_expiry_hours"`
	SweepIntervalMins int    `yaml:"sweep_interval_minutes"`
	MaxFormatChoices  int    `yaml:"max_format_choices"`
	JobTimeoutSeconds int    `yaml:"job_timeout_seconds"`
	SelfPingMins      int    `yaml:"self_ping_minutes"`
}

func defaults() Config {
	return Config{
		ServerAddr:        ":8080",
		BaseURL:           "http://localhost:8080",
		DownloadsDir:      "./downloads",
		YtDlpPath:         "yt-dlp",
		FileExpiryHours:   4,
		SweepIntervalMins: 60,
		MaxFormatChoices:  25,
		JobTimeoutSeconds: 0,
		SelfPingMins:      15,
	}
}

// Load reads the optional CONFIG_FILE and environment variables, environment
// winning, and returns normalized runtime config.
func Load() Config {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(data, &cfg)
		}
	}

	cfg.ServerAddr = getEnv("SERVER_ADDR", cfg.ServerAddr)
	cfg.BaseURL = strings.TrimRight(getEnv("BASE_URL", cfg.BaseURL), "/")
	cfg.DownloadsDir = getEnv("DOWNLOADS_DIR", cfg.DownloadsDir)
	cfg.YtDlpPath = getEnv("YTDLP_PATH", cfg.YtDlpPath)
	cfg.FileExpiryHours = getEnvInt("FILE_EXPIRY_HOURS", cfg.FileExpiryHours)
	cfg.SweepIntervalMins = getEnvInt("SWEEP_INTERVAL_MINUTES", cfg.SweepIntervalMins)
	cfg.MaxFormatChoices = getEnvInt("MAX_FORMAT_CHOICES", cfg.MaxFormatChoices)
	cfg.JobTimeoutSeconds = getEnvIntAllowZero("JOB_TIMEOUT_SECONDS", cfg.JobTimeoutSeconds)
	cfg.SelfPingMins = getEnvIntAllowZero("SELF_PING_MINUTES", cfg.SelfPingMins)
	return cfg
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var out int
	_, err := fmt.Sscanf(value, "%d", &out)
	if err != nil || out <= 0 {
		return fallback
	}
	return out
}

// getEnvIntAllowZero is for settings where zero means disabled.
func getEnvIntAllowZero(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var out int
	_, err := fmt.Sscanf(value, "%d", &out)
	if err != nil || out < 0 {
		return fallback
	}
	return out
}
