package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings es el documento de configuración (settings.json por defecto).
type Settings struct {
	Prefix   string `mapstructure:"prefix"`
	Commands struct {
		Topic string `mapstructure:"topic"`
	} `mapstructure:"commands"`
	Cooldown struct {
		Hours   int `mapstructure:"hours"`
		Minutes int `mapstructure:"minutes"`
		Seconds int `mapstructure:"seconds"`
	} `mapstructure:"cooldown"`
	Channels struct {
		Topic      string `mapstructure:"-"`
		Moderation string `mapstructure:"-"`
	} `mapstructure:"-"`
	Reacts struct {
		Approve string `mapstructure:"approve"`
		Deny    string `mapstructure:"deny"`
	} `mapstructure:"reacts"`
	TopicChannelPrefix string `mapstructure:"topic_channel_prefix"`
	Token              string `mapstructure:"token"`

	// opcionales
	Guild            string   `mapstructure:"guild"`
	AdminRoles       []string `mapstructure:"admin_roles"`
	RateLimitSeconds int      `mapstructure:"rate_limit_seconds"`
}

// Command es el comando completo, ej "!topic".
func (s Settings) Command() string { return s.Prefix + s.Commands.Topic }

func (s Settings) CooldownDuration() time.Duration {
	return time.Duration(s.Cooldown.Hours)*time.Hour +
		time.Duration(s.Cooldown.Minutes)*time.Minute +
		time.Duration(s.Cooldown.Seconds)*time.Second
}

// Runtime sale del entorno del proceso (y del .env si existe).
type Runtime struct {
	SettingsPath string        `env:"SETTINGS_PATH" envDefault:"settings.json"`
	StateBackend string        `env:"STATE_BACKEND" envDefault:"file"`
	StatePath    string        `env:"STATE_PATH" envDefault:"state.json"`
	DatabaseURL  string        `env:"DATABASE_URL"`
	SQLitePath   string        `env:"SQLITE_PATH" envDefault:"topic-bot.db"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"10s"`
	HTTPAddr     string        `env:"HTTP_ADDR"` // vacío = sin servidor de status
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	DiscordToken string        `env:"DISCORD_TOKEN"`
}

type Config struct {
	Settings
	Runtime
}

var requiredKeys = []string{
	"prefix",
	"commands.topic",
	"cooldown.hours",
	"cooldown.minutes",
	"cooldown.seconds",
	"channels.topic",
	"channels.moderation",
	"reacts.approve",
	"reacts.deny",
	"topic_channel_prefix",
}

// Load lee .env, el entorno y el documento de settings. Cualquier error es
// fatal para el arranque; se devuelven todos los problemas juntos.
func Load() (Config, error) {
	_ = godotenv.Load()

	var rt Runtime
	if err := env.Parse(&rt); err != nil {
		return Config{}, fmt.Errorf("env: %w", err)
	}
	if err := rt.validate(); err != nil {
		return Config{}, err
	}

	s, err := LoadSettings(rt.SettingsPath)
	if err != nil {
		return Config{}, err
	}
	if rt.DiscordToken != "" {
		s.Token = rt.DiscordToken
	}
	if strings.TrimSpace(s.Token) == "" {
		return Config{}, errors.New("config: token is required (settings token or DISCORD_TOKEN)")
	}
	return Config{Settings: s, Runtime: rt}, nil
}

// LoadSettings lee el documento con viper (JSON, YAML o TOML según la extensión).
func LoadSettings(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var errs []error
	for _, k := range requiredKeys {
		if !v.IsSet(k) {
			errs = append(errs, fmt.Errorf("config: missing key %q", k))
		}
	}
	if len(errs) > 0 {
		return Settings{}, errors.Join(errs...)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("config: decode %s: %w", path, err)
	}

	var err error
	if s.Channels.Topic, err = snowflake(v.Get("channels.topic")); err != nil {
		errs = append(errs, fmt.Errorf("config: channels.topic: %w", err))
	}
	if s.Channels.Moderation, err = snowflake(v.Get("channels.moderation")); err != nil {
		errs = append(errs, fmt.Errorf("config: channels.moderation: %w", err))
	}
	if v.IsSet("guild") {
		if s.Guild, err = snowflake(v.Get("guild")); err != nil {
			errs = append(errs, fmt.Errorf("config: guild: %w", err))
		}
	}
	errs = append(errs, s.validate()...)
	if len(errs) > 0 {
		return Settings{}, errors.Join(errs...)
	}
	return s, nil
}

func (s Settings) validate() []error {
	var errs []error
	if strings.TrimSpace(s.Prefix) == "" {
		errs = append(errs, errors.New("config: prefix is empty"))
	}
	if strings.TrimSpace(s.Commands.Topic) == "" {
		errs = append(errs, errors.New("config: commands.topic is empty"))
	}
	if s.Cooldown.Hours < 0 || s.Cooldown.Minutes < 0 || s.Cooldown.Seconds < 0 {
		errs = append(errs, errors.New("config: cooldown values must not be negative"))
	}
	if s.Reacts.Approve == "" || s.Reacts.Deny == "" {
		errs = append(errs, errors.New("config: reacts.approve and reacts.deny are required"))
	} else if s.Reacts.Approve == s.Reacts.Deny {
		errs = append(errs, errors.New("config: reacts.approve and reacts.deny must differ"))
	}
	if s.Channels.Topic != "" && s.Channels.Topic == s.Channels.Moderation {
		errs = append(errs, errors.New("config: topic and moderation channels must differ"))
	}
	if s.RateLimitSeconds < 0 {
		errs = append(errs, errors.New("config: rate_limit_seconds must not be negative"))
	}
	for _, r := range s.AdminRoles {
		if !isDigits(r) {
			errs = append(errs, fmt.Errorf("config: admin role %q is not a snowflake", r))
		}
	}
	return errs
}

func (rt Runtime) validate() error {
	switch strings.ToLower(rt.StateBackend) {
	case "file":
		if rt.StatePath == "" {
			return errors.New("config: STATE_PATH is empty")
		}
	case "postgres":
		if rt.DatabaseURL == "" {
			return errors.New("config: STATE_BACKEND=postgres requires DATABASE_URL")
		}
	case "sqlite":
		if rt.SQLitePath == "" {
			return errors.New("config: SQLITE_PATH is empty")
		}
	default:
		return fmt.Errorf("config: unknown STATE_BACKEND %q", rt.StateBackend)
	}
	if rt.PollInterval <= 0 {
		return errors.New("config: POLL_INTERVAL must be positive")
	}
	return nil
}

// snowflake acepta ids como string o como entero (YAML/TOML). Los números JSON
// llegan como float64 y pierden precisión, por eso se rechazan.
func snowflake(raw any) (string, error) {
	var s string
	switch v := raw.(type) {
	case string:
		s = strings.TrimSpace(v)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case uint64:
		s = strconv.FormatUint(v, 10)
	case float64:
		return "", errors.New("must be a quoted string, JSON numbers lose precision")
	default:
		return "", fmt.Errorf("unsupported value %v", raw)
	}
	if !isDigits(s) {
		return "", fmt.Errorf("%q is not a snowflake id", s)
	}
	return s, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
