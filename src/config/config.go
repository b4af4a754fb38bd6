// Package config loads the bot configuration from a JSON file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"jenkins-notify-bot/src/contracts"
	"jenkins-notify-bot/src/message"
)

// EnvPrefix prefixes environment overrides, e.g. NOTIFY_BOT_API_TOKEN.
const EnvPrefix = "NOTIFY_BOT"

const (
	DefaultPath            = "config.json"
	DefaultStatusPath      = "last_build_status.txt"
	DefaultInterval        = 120
	DefaultRequestTimeout  = 30
	DefaultConcurrency     = 4
	DefaultMessagePrefix   = "Build"
	DefaultTitle           = "Jenkins Build Report"
	DefaultSuccessEmoticon = string(message.Clap)
	DefaultFailureEmoticon = string(message.Devil)
)

// Config holds the bot configuration.
type Config struct {
	APIToken            string         `mapstructure:"api_token" validate:"required_unless=DryRun true"`
	JenkinsServerURL    string         `mapstructure:"jenkins_server_url" validate:"required,url"`
	JenkinsUser         string         `mapstructure:"jenkins_user"`
	JenkinsAPIToken     string         `mapstructure:"jenkins_api_token" validate:"required_with=JenkinsUser"`
	ChatworkBaseURL     string         `mapstructure:"chatwork_base_url" validate:"required,url"`
	LastBuildStatusPath string         `mapstructure:"last_build_status_path"`
	Interval            int            `mapstructure:"interval" validate:"min=1"`
	RequestTimeout      int            `mapstructure:"request_timeout" validate:"min=1"`
	DetailConcurrency   int            `mapstructure:"detail_concurrency" validate:"min=1,max=64"`
	JenkinsRateLimit    float64        `mapstructure:"jenkins_rate_limit" validate:"min=0"`
	DryRun              bool           `mapstructure:"dry_run"`
	LogLevel            string         `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat           string         `mapstructure:"log_format" validate:"oneof=console json plain"`
	StatusStore         StoreConfig    `mapstructure:"status_store"`
	RedpandaBrokers     []string       `mapstructure:"redpanda_brokers" validate:"dive,hostname_port"`
	NotifyOptions       []NotifyOption `mapstructure:"notify_options" validate:"dive"`
}

// StoreConfig selects the status store backend.
// For the file driver an empty DSN falls back to LastBuildStatusPath.
// The sqlite DSN is a database file path.
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=file sqlite postgres"`
	DSN    string `mapstructure:"dsn" validate:"required_if=Driver postgres,required_if=Driver sqlite"`
}

// NotifyOption is one subscription as written in the config file.
type NotifyOption struct {
	Name            string   `mapstructure:"name"`
	Jobs            []string `mapstructure:"jobs" validate:"required,min=1,dive,required"`
	Rooms           []string `mapstructure:"rooms" validate:"required,min=1,dive,required,numeric"`
	Policy          string   `mapstructure:"policy" validate:"omitempty,oneof=build build_fixed build_success"`
	MessagePrefix   string   `mapstructure:"message_prefix"`
	SuccessMessages []string `mapstructure:"success_messages"`
	FailureMessages []string `mapstructure:"failure_messages"`
	SuccessEmoticon string   `mapstructure:"success_emoticon" validate:"omitempty,emoticon"`
	FailureEmoticon string   `mapstructure:"failure_emoticon" validate:"omitempty,emoticon"`
}

// envKeys are the top-level keys that may be overridden from the environment.
var envKeys = []string{
	"api_token",
	"jenkins_server_url",
	"jenkins_user",
	"jenkins_api_token",
	"chatwork_base_url",
	"last_build_status_path",
	"interval",
	"request_timeout",
	"detail_concurrency",
	"jenkins_rate_limit",
	"dry_run",
	"log_level",
	"log_format",
	"status_store.driver",
	"status_store.dsn",
	"redpanda_brokers",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chatwork_base_url", "https://api.chatwork.com/v2/")
	v.SetDefault("last_build_status_path", DefaultStatusPath)
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("detail_concurrency", DefaultConcurrency)
	v.SetDefault("jenkins_rate_limit", 0)
	v.SetDefault("dry_run", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("status_store.driver", "file")
	v.SetDefault("status_store.dsn", "")
}

// Load reads the JSON config at path, applies defaults and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &UserError{
				Message: fmt.Sprintf("Config file %s not found", path),
				Hint:    "Create it from config.json.example or pass --config <path>.",
				Err:     err,
			}
		}
		return nil, &UserError{
			Message: fmt.Sprintf("Config file %s could not be parsed", path),
			Hint:    "The config file must be a single JSON object.",
			Err:     err,
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &UserError{
			Message: "Config file has values of the wrong type",
			Err:     err,
		}
	}
	cfg.applyOptionDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyOptionDefaults() {
	for i := range c.NotifyOptions {
		opt := &c.NotifyOptions[i]
		if opt.Name == "" {
			opt.Name = fmt.Sprintf("notify_options[%d]", i)
		}
		if opt.Policy == "" {
			opt.Policy = contracts.DefaultPolicy.String()
		}
		if opt.MessagePrefix == "" {
			opt.MessagePrefix = DefaultMessagePrefix
		}
		if len(opt.SuccessMessages) == 0 {
			opt.SuccessMessages = []string{DefaultTitle}
		}
		if len(opt.FailureMessages) == 0 {
			opt.FailureMessages = []string{DefaultTitle}
		}
		if opt.SuccessEmoticon == "" {
			opt.SuccessEmoticon = DefaultSuccessEmoticon
		}
		if opt.FailureEmoticon == "" {
			opt.FailureEmoticon = DefaultFailureEmoticon
		}
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Chatwork renders any name as "(name)"; only characters that would
	// break that token are refused.
	if err := v.RegisterValidation("emoticon", validEmoticon); err != nil {
		panic(err)
	}
	return v
}

func validEmoticon(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return !strings.ContainsAny(name, "()") && strings.IndexFunc(name, unicode.IsSpace) < 0
}

// Validate checks required fields and enumerations.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return &UserError{
		Message: "Invalid configuration: " + strings.Join(fields, ", "),
		Hint:    "Check config.json against config.json.example. Policies are build, build_fixed or build_success.",
		Err:     err,
	}
}

// Subscriptions converts the notify options into routing subscriptions.
func (c *Config) Subscriptions() ([]contracts.Subscription, error) {
	subs := make([]contracts.Subscription, 0, len(c.NotifyOptions))
	for _, opt := range c.NotifyOptions {
		policy, err := contracts.ParsePolicy(opt.Policy)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opt.Name, err)
		}
		subs = append(subs, contracts.Subscription{
			Name:            opt.Name,
			Jobs:            opt.Jobs,
			Rooms:           opt.Rooms,
			Policy:          policy,
			MessagePrefix:   opt.MessagePrefix,
			SuccessTitles:   opt.SuccessMessages,
			FailureTitles:   opt.FailureMessages,
			SuccessEmoticon: opt.SuccessEmoticon,
			FailureEmoticon: opt.FailureEmoticon,
		})
	}
	return subs, nil
}

// PollInterval is the pause between cycles.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// Timeout bounds every outbound HTTP call.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// StoreTarget returns the driver and target passed to store.Open.
func (c *Config) StoreTarget() (driver, target string) {
	driver = c.StatusStore.Driver
	target = c.StatusStore.DSN
	if target == "" && (driver == "" || driver == "file") {
		target = c.LastBuildStatusPath
	}
	return driver, target
}
