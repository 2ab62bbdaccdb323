// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the tunables of a Propagator and of a Simulator. It can be
// loaded from a YAML file.
//
type Config struct {
	// OscillationThreshold is the number of value changes of a single net
	// within one propagation burst above which the burst is aborted.
	OscillationThreshold int `yaml:"oscillation_threshold"`
	// MaxBurstSteps caps the number of steps of one propagation burst.
	MaxBurstSteps int `yaml:"max_burst_steps"`

	AutoPropagate bool    `yaml:"auto_propagate"`
	AutoTick      bool    `yaml:"auto_tick"`
	TickFrequency float64 `yaml:"tick_frequency"` // Hz

	// SubscriberBuffer is the default channel capacity of subscriptions.
	SubscriberBuffer int `yaml:"subscriber_buffer"`
}

// DefaultConfig returns the default configuration.
//
func DefaultConfig() Config {
	return Config{
		OscillationThreshold: 500,
		MaxBurstSteps:        100000,
		AutoPropagate:        true,
		AutoTick:             false,
		TickFrequency:        1,
		SubscriberBuffer:     64,
	}
}

// LoadConfig reads a YAML configuration file. Missing keys keep their default
// value.
//
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err = yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parse config "+path)
	}
	if err = cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, path)
	}
	return cfg, nil
}

// Validate checks that all values are in range.
//
func (c *Config) Validate() error {
	switch {
	case c.OscillationThreshold < 1:
		return errors.Errorf("oscillation_threshold must be positive, got %d", c.OscillationThreshold)
	case c.MaxBurstSteps < 1:
		return errors.Errorf("max_burst_steps must be positive, got %d", c.MaxBurstSteps)
	case c.TickFrequency <= 0:
		return errors.Errorf("tick_frequency must be positive, got %g", c.TickFrequency)
	case c.SubscriberBuffer < 0:
		return errors.Errorf("subscriber_buffer must not be negative, got %d", c.SubscriberBuffer)
	}
	return nil
}

// Options converts the configuration to a list of Option.
//
func (c Config) Options() []Option {
	return []Option{
		WithOscillationThreshold(c.OscillationThreshold),
		WithMaxBurstSteps(c.MaxBurstSteps),
		WithAutoPropagate(c.AutoPropagate),
		WithAutoTick(c.AutoTick),
		WithTickFrequency(c.TickFrequency),
		WithSubscriberBuffer(c.SubscriberBuffer),
	}
}

// An Option configures a Propagator or a Simulator. Options that do not apply
// to the receiver are ignored.
//
type Option func(*options)

type options struct {
	Config
	log *slog.Logger
}

func newOptions(opts []Option) options {
	o := options{Config: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	return o
}

// WithLogger sets the logger. The default is slog.Default().
//
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.log = l } }

// WithOscillationThreshold sets the number of changes of one net within one
// burst above which the circuit is deemed oscillating.
//
func WithOscillationThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.OscillationThreshold = n
		}
	}
}

// WithMaxBurstSteps caps the number of steps of one propagation burst.
//
func WithMaxBurstSteps(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.MaxBurstSteps = n
		}
	}
}

// WithAutoPropagate sets the initial propagation mode of a Simulator: when
// true, every change is propagated until the circuit settles; when false, the
// simulator runs one step per request.
//
func WithAutoPropagate(on bool) Option { return func(o *options) { o.AutoPropagate = on } }

// WithAutoTick starts a Simulator with its real-time clock driver enabled.
//
func WithAutoTick(on bool) Option { return func(o *options) { o.AutoTick = on } }

// WithTickFrequency sets the tick frequency of the clock driver in Hz.
//
func WithTickFrequency(hz float64) Option {
	return func(o *options) {
		if hz > 0 {
			o.TickFrequency = hz
		}
	}
}

// WithSubscriberBuffer sets the default channel capacity of subscriptions.
//
func WithSubscriberBuffer(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.SubscriberBuffer = n
		}
	}
}
