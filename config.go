package statewise

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/sirupsen/logrus"
)

// Config holds the tunables read from the environment
type Config struct {
	// ActionWorkers bounds the asynchronous actions running at a time
	ActionWorkers int `env:"STATEWISE_ACTION_WORKERS, default=16"`
	// ListenerWorkers bounds the asynchronous listeners running at a time
	ListenerWorkers int `env:"STATEWISE_LISTENER_WORKERS, default=4"`
	// ActionTimeout applies to asynchronous actions declared without their
	// own timeout. Zero disables it.
	ActionTimeout time.Duration `env:"STATEWISE_ACTION_TIMEOUT, default=0s"`
	// MaxQueuedEvents bounds the events fired from within a transition
	MaxQueuedEvents int `env:"STATEWISE_MAX_QUEUED_EVENTS, default=1024"`

	Verbose  bool   `env:"STATEWISE_VERBOSE, default=false"`
	Timing   bool   `env:"STATEWISE_TIMING, default=false"`
	LogLevel string `env:"STATEWISE_LOG_LEVEL, default=info"`
}

// DefaultConfig returns the configuration used when the environment sets
// nothing
func DefaultConfig() Config {
	return Config{
		ActionWorkers:   16,
		ListenerWorkers: 4,
		MaxQueuedEvents: 1024,
		LogLevel:        "info",
	}
}

// LoadConfig reads the configuration from the process environment
func LoadConfig(ctx context.Context) (Config, error) {
	return loadConfig(ctx, envconfig.OsLookuper())
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Logger returns a logrus logger at the configured level
func (c Config) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetLevel(level)
	return logger, nil
}

// Executors creates an action and a listener executor sized by c
func (c Config) Executors(logger logrus.FieldLogger) (*Executor, *Executor) {
	return NewExecutor(c.ActionWorkers, logger), NewExecutor(c.ListenerWorkers, logger)
}

// WithConfig applies the queue bound, the default action timeout and the
// monitor toggles of cfg. Executors and logger are set separately.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		if cfg.MaxQueuedEvents > 0 {
			o.maxQueued = cfg.MaxQueuedEvents
		}
		o.actionTimeout = cfg.ActionTimeout
		o.verbose = cfg.Verbose
		o.timing = cfg.Timing
	}
}
