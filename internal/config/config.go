// Package config defines all configuration for the surveillance service.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// POLYWATCH_* environment variables taking precedence over file values.
// String values may reference environment variables as ${VAR}; unresolved
// references are left literal.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Detector names accepted in the detectors setting.
const (
	DetectorSpike  = "spike"
	DetectorLVR    = "lvr"
	DetectorZScore = "zscore"
	DetectorMAD    = "mad"
	DetectorClosed = "closed"
)

// ValidDetectors is the full detector set, also the default.
var ValidDetectors = []string{DetectorSpike, DetectorLVR, DetectorZScore, DetectorMAD, DetectorClosed}

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	Slugs               []string `mapstructure:"slugs"`
	PollInterval        int      `mapstructure:"poll_interval"` // seconds
	SpikeThreshold      float64  `mapstructure:"spike_threshold"`
	LVRThreshold        float64  `mapstructure:"lvr_threshold"`
	ZScoreThreshold     float64  `mapstructure:"zscore_threshold"`
	MADMultiplier       float64  `mapstructure:"mad_multiplier"`
	CooldownMinutes     int      `mapstructure:"cooldown_minutes"`
	EscalationThreshold float64  `mapstructure:"escalation_threshold"`
	ClobTokenIDs        []string `mapstructure:"clob_token_ids"` // optional override, else auto-derived

	// Detectors holds the enabled detector names after parsing; the raw
	// YAML value may be "all", "none", a comma-separated string, or a list.
	Detectors map[string]bool `mapstructure:"-"`

	API      APIConfig      `mapstructure:"api"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// APIConfig holds upstream base URLs. Defaults point at production
// Polymarket endpoints; tests point them at local servers.
type APIConfig struct {
	GammaBaseURL    string `mapstructure:"gamma_base_url"`
	CLOBBaseURL     string `mapstructure:"clob_base_url"`
	TelegramBaseURL string `mapstructure:"telegram_base_url"`
}

// TelegramConfig holds the outbound notification credentials.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CooldownDuration returns the alert cooldown as a duration. Zero disables.
func (c *Config) CooldownDuration() time.Duration {
	return time.Duration(c.CooldownMinutes) * time.Minute
}

// DetectorEnabled reports whether the named detector is on.
func (c *Config) DetectorEnabled(name string) bool {
	return c.Detectors[name]
}

var envRefPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnv replaces ${VAR} references with environment values.
// Unresolved references are kept literal.
func substituteEnv(value string) string {
	return envRefPattern.ReplaceAllStringFunc(value, func(match string) string {
		name := match[2 : len(match)-1]
		if env, ok := os.LookupEnv(name); ok {
			return env
		}
		return match
	})
}

// ParseDetectors converts a raw detectors value into the enabled set.
// Accepts "all", "none", or a comma-separated list of names; unknown names
// are returned separately so the caller can warn about them.
func ParseDetectors(value string) (enabled map[string]bool, unknown []string) {
	enabled = make(map[string]bool)
	trimmed := strings.ToLower(strings.TrimSpace(value))

	switch trimmed {
	case "", "all":
		for _, name := range ValidDetectors {
			enabled[name] = true
		}
		return enabled, nil
	case "none":
		return enabled, nil
	}

	valid := make(map[string]bool, len(ValidDetectors))
	for _, name := range ValidDetectors {
		valid[name] = true
	}

	for _, part := range strings.Split(trimmed, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if valid[name] {
			enabled[name] = true
		} else {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return enabled, unknown
}

// Load reads config from a YAML file with env var overrides. The file is
// optional: if it does not exist, configuration comes entirely from
// POLYWATCH_* environment variables.
func Load(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("POLYWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("poll_interval", 60)
	v.SetDefault("spike_threshold", 5.0)
	v.SetDefault("lvr_threshold", 8.0)
	v.SetDefault("zscore_threshold", 3.5)
	v.SetDefault("mad_multiplier", 3.0)
	v.SetDefault("cooldown_minutes", 30)
	v.SetDefault("escalation_threshold", 1.0)
	v.SetDefault("api.gamma_base_url", "https://gamma-api.polymarket.com")
	v.SetDefault("api.clob_base_url", "https://clob.polymarket.com")
	v.SetDefault("api.telegram_base_url", "https://api.telegram.org")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logger.Info("no config file, using environment variables", "path", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Env overrides for list-valued settings (comma-separated)
	if slugs := os.Getenv("POLYWATCH_SLUGS"); slugs != "" {
		cfg.Slugs = splitList(slugs)
	}
	if tokens := os.Getenv("POLYWATCH_CLOB_TOKEN_IDS"); tokens != "" {
		cfg.ClobTokenIDs = splitList(tokens)
	}

	// Telegram credentials: bare env names kept for operator convenience
	if tok := os.Getenv("TELEGRAM_BOT_TOKEN"); tok != "" {
		cfg.Telegram.BotToken = tok
	}
	if chat := os.Getenv("TELEGRAM_CHAT_ID"); chat != "" {
		cfg.Telegram.ChatID = chat
	}

	// Detectors: env takes precedence over the file value. The file value
	// may be a YAML list or a string.
	rawDetectors := os.Getenv("POLYWATCH_DETECTORS")
	if rawDetectors == "" {
		switch val := v.Get("detectors").(type) {
		case string:
			rawDetectors = val
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			rawDetectors = strings.Join(parts, ",")
		}
	}
	enabled, unknown := ParseDetectors(rawDetectors)
	if len(unknown) > 0 {
		logger.Warn("ignoring unknown detector names", "names", strings.Join(unknown, ","))
	}
	cfg.Detectors = enabled

	cfg.expandEnvRefs()

	return &cfg, nil
}

// expandEnvRefs applies ${VAR} substitution to every string-valued setting.
func (c *Config) expandEnvRefs() {
	for i, s := range c.Slugs {
		c.Slugs[i] = substituteEnv(s)
	}
	for i, s := range c.ClobTokenIDs {
		c.ClobTokenIDs[i] = substituteEnv(s)
	}
	c.Telegram.BotToken = substituteEnv(c.Telegram.BotToken)
	c.Telegram.ChatID = substituteEnv(c.Telegram.ChatID)
	c.API.GammaBaseURL = substituteEnv(c.API.GammaBaseURL)
	c.API.CLOBBaseURL = substituteEnv(c.API.CLOBBaseURL)
	c.API.TelegramBaseURL = substituteEnv(c.API.TelegramBaseURL)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if len(c.Slugs) == 0 {
		return fmt.Errorf("slugs: must be a non-empty list (set POLYWATCH_SLUGS)")
	}
	for i, slug := range c.Slugs {
		if strings.TrimSpace(slug) == "" {
			return fmt.Errorf("slugs[%d]: must be a non-empty string", i)
		}
	}
	if c.PollInterval < 10 {
		return fmt.Errorf("poll_interval: must be >= 10 seconds, got %d", c.PollInterval)
	}
	if c.SpikeThreshold < 0.1 || c.SpikeThreshold > 100.0 {
		return fmt.Errorf("spike_threshold: must be between 0.1 and 100.0, got %g", c.SpikeThreshold)
	}
	if c.LVRThreshold < 0.1 || c.LVRThreshold > 100.0 {
		return fmt.Errorf("lvr_threshold: must be between 0.1 and 100.0, got %g", c.LVRThreshold)
	}
	if c.ZScoreThreshold <= 0 {
		return fmt.Errorf("zscore_threshold: must be positive, got %g", c.ZScoreThreshold)
	}
	if c.MADMultiplier <= 0 {
		return fmt.Errorf("mad_multiplier: must be positive, got %g", c.MADMultiplier)
	}
	if c.CooldownMinutes < 0 {
		return fmt.Errorf("cooldown_minutes: must be >= 0, got %d", c.CooldownMinutes)
	}
	if c.EscalationThreshold <= 0 {
		return fmt.Errorf("escalation_threshold: must be positive, got %g", c.EscalationThreshold)
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token: must be a non-empty string (set TELEGRAM_BOT_TOKEN)")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id: must be a non-empty string (set TELEGRAM_CHAT_ID)")
	}
	return nil
}
