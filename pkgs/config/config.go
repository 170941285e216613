package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// EnvConfigPath is the env var that points to the JSON config file.
	EnvConfigPath = "MCP_MAIL_CONFIG"

	// EnvPrefix prefixes per-key overrides, e.g. MCP_MAIL_PASSWORD.
	EnvPrefix = "MCP_MAIL"

	// DefaultFile is used when neither a flag nor EnvConfigPath names a file.
	DefaultFile = "config.json"
)

// Defaults for optional keys.
const (
	DefaultIMAPSPort     = 993
	DefaultIMAPPort      = 143
	DefaultSMTPPort      = 587
	DefaultRetryCount    = 3
	DefaultRetryDelay    = 2.0
	DefaultSummaryLength = 200
)

// Config holds the settings of the single mailbox account.
type Config struct {
	Email      string `mapstructure:"email" json:"email"`
	Password   string `mapstructure:"password" json:"password"`
	IMAPServer string `mapstructure:"imap_server" json:"imap_server"`
	IMAPPort   int    `mapstructure:"imap_port" json:"imap_port"`
	SMTPServer string `mapstructure:"smtp_server" json:"smtp_server"`
	SMTPPort   int    `mapstructure:"smtp_port" json:"smtp_port"`
	UseSSL     bool   `mapstructure:"use_ssl" json:"use_ssl"`

	// RetryCount is the number of attempts per network operation.
	RetryCount int `mapstructure:"retry_count" json:"retry_count"`
	// RetryDelay is the pause between attempts, in seconds.
	RetryDelay float64 `mapstructure:"retry_delay" json:"retry_delay"`

	FromName      string `mapstructure:"from_name" json:"from_name,omitempty"`
	SummaryLength int    `mapstructure:"summary_length" json:"summary_length,omitempty"`
}

// required lists keys that have no default.
var required = []string{"email", "password", "imap_server", "smtp_server"}

var keys = []string{
	"email", "password",
	"imap_server", "imap_port",
	"smtp_server", "smtp_port",
	"use_ssl", "retry_count", "retry_delay",
	"from_name", "summary_length",
}

// ResolvePath picks the config file: explicit flag value first, then
// EnvConfigPath, then DefaultFile in the working directory.
func ResolvePath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	return DefaultFile
}

// Load reads the JSON config at path, applies MCP_MAIL_* environment
// overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) || errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("config file %s not found", path)
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := applyEnv(v); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return decode(v, path)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")

	v.SetDefault("smtp_port", DefaultSMTPPort)
	v.SetDefault("use_ssl", true)
	v.SetDefault("retry_count", DefaultRetryCount)
	v.SetDefault("retry_delay", DefaultRetryDelay)
	v.SetDefault("summary_length", DefaultSummaryLength)
	return v
}

// applyEnv overrides file values with non-empty MCP_MAIL_<KEY> variables.
// Each value is parsed by the type of its field, so decode never has to
// convert strings.
func applyEnv(v *viper.Viper) error {
	for _, k := range keys {
		name := EnvPrefix + "_" + strings.ToUpper(k)
		s := strings.TrimSpace(os.Getenv(name))
		if s == "" {
			continue
		}
		val, err := parseEnv(k, s)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		v.Set(k, val)
	}
	return nil
}

func parseEnv(key, s string) (any, error) {
	switch key {
	case "imap_port", "smtp_port", "retry_count", "summary_length":
		return strconv.Atoi(s)
	case "use_ssl":
		return strconv.ParseBool(s)
	case "retry_delay":
		return strconv.ParseFloat(s, 64)
	default:
		return s, nil
	}
}

// integralFloats rejects JSON numbers with a fraction for int fields, which
// mapstructure would otherwise truncate.
func integralFloats(_, to reflect.Type, data any) (any, error) {
	if f, ok := data.(float64); ok && to.Kind() == reflect.Int && f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not an integer", f)
	}
	return data, nil
}

// strictDecoding turns off mapstructure's weak typing: "3" is not an int,
// "1" is not a bool and 12345 is not a string.
func strictDecoding(dc *mapstructure.DecoderConfig) {
	dc.WeaklyTypedInput = false
	dc.DecodeHook = mapstructure.DecodeHookFuncType(integralFloats)
}

func decode(v *viper.Viper, path string) (*Config, error) {
	var missing []string
	for _, k := range required {
		if !v.IsSet(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("config %s: missing required key(s): %s", path, strings.Join(missing, ", "))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, strictDecoding); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// The IMAP default depends on use_ssl.
	if !v.IsSet("imap_port") {
		cfg.IMAPPort = DefaultIMAPPort
		if cfg.UseSSL {
			cfg.IMAPPort = DefaultIMAPSPort
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks that every field is present and well formed.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return fmt.Errorf("email %q is not a valid address: %w", c.Email, err)
	}
	if c.Password == "" {
		return errors.New("password is required")
	}
	if strings.TrimSpace(c.IMAPServer) == "" {
		return errors.New("imap_server is required")
	}
	if strings.TrimSpace(c.SMTPServer) == "" {
		return errors.New("smtp_server is required")
	}
	if c.IMAPPort < 1 || c.IMAPPort > 65535 {
		return fmt.Errorf("imap_port %d is out of range", c.IMAPPort)
	}
	if c.SMTPPort < 1 || c.SMTPPort > 65535 {
		return fmt.Errorf("smtp_port %d is out of range", c.SMTPPort)
	}
	if c.RetryCount < 1 {
		return fmt.Errorf("retry_count must be at least 1, got %d", c.RetryCount)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative, got %g", c.RetryDelay)
	}
	if c.SummaryLength < 0 {
		return fmt.Errorf("summary_length must not be negative, got %d", c.SummaryLength)
	}
	return nil
}

// RetryInterval returns RetryDelay as a duration.
func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.RetryDelay * float64(time.Second))
}

// Domain returns the domain part of the account email address.
// Returns "localhost" if no domain can be extracted.
func (c *Config) Domain() string {
	if idx := strings.LastIndex(c.Email, "@"); idx >= 0 && idx < len(c.Email)-1 {
		return c.Email[idx+1:]
	}
	return "localhost"
}

// Example returns an example configuration for "init".
func Example() *Config {
	return &Config{
		Email:         "user@example.com",
		Password:      "app-password",
		IMAPServer:    "imap.example.com",
		IMAPPort:      DefaultIMAPSPort,
		SMTPServer:    "smtp.example.com",
		SMTPPort:      DefaultSMTPPort,
		UseSSL:        true,
		RetryCount:    DefaultRetryCount,
		RetryDelay:    DefaultRetryDelay,
		FromName:      "Your Name",
		SummaryLength: DefaultSummaryLength,
	}
}

// Save writes cfg to path as JSON. An existing file is never overwritten.
func Save(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set("email", cfg.Email)
	v.Set("password", cfg.Password)
	v.Set("imap_server", cfg.IMAPServer)
	v.Set("imap_port", cfg.IMAPPort)
	v.Set("smtp_server", cfg.SMTPServer)
	v.Set("smtp_port", cfg.SMTPPort)
	v.Set("use_ssl", cfg.UseSSL)
	v.Set("retry_count", cfg.RetryCount)
	v.Set("retry_delay", cfg.RetryDelay)
	if cfg.FromName != "" {
		v.Set("from_name", cfg.FromName)
	}
	if cfg.SummaryLength != 0 {
		v.Set("summary_length", cfg.SummaryLength)
	}

	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	// The file holds a password.
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to restrict config file permissions: %w", err)
	}
	return nil
}
