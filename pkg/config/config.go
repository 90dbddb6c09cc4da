// Package config loads the server configuration: listeners, database,
// logging, the settings shared by every table and the tables to spawn.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vctt94/pokertable/pkg/table"
)

// Duration is a time.Duration written as a Go duration string, such as
// "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a string", value.Line)
	}
	v, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) D() time.Duration { return time.Duration(d) }

// Config is the root of the configuration file.
type Config struct {
	Listen   ListenConfig   `yaml:"listen"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Settings SettingsConfig `yaml:"settings"`
	Tables   []TableConfig  `yaml:"tables"`
}

type ListenConfig struct {
	// GRPC is the address of the gRPC service.
	GRPC string `yaml:"grpc"`
	// WebSocket is the address of the websocket gateway; empty disables
	// it.
	WebSocket string `yaml:"websocket"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type LogConfig struct {
	File     string `yaml:"file"`
	Level    string `yaml:"level"`
	MaxFiles int    `yaml:"max_files"`
	MaxSize  int64  `yaml:"max_size_kb"`
}

// SettingsConfig holds the defaults every table shares.
type SettingsConfig struct {
	Autodeal             bool     `yaml:"autodeal"`
	AutodealTemporary    bool     `yaml:"autodeal_temporary"`
	AutodealDelay        Duration `yaml:"autodeal_delay"`
	AutodealTransientMin Duration `yaml:"autodeal_transient_min"`
	AutodealMax          Duration `yaml:"autodeal_max"`
	MaxMissedRounds      int      `yaml:"max_missed_rounds"`
	// TemporaryPattern matches the names of temporary users, such as
	// bots.
	TemporaryPattern string   `yaml:"temporary_pattern"`
	ChatFilter       string   `yaml:"chat_filter"`
	WatchdogInterval Duration `yaml:"watchdog_interval"`
	// RefillPolicy is "between-hands" or "mid-hand".
	RefillPolicy string `yaml:"refill_policy"`
	// MaxJoined bounds the identities joined to tables server wide.
	MaxJoined int `yaml:"max_joined"`
	// DealSeed makes every deck reproducible when non zero.
	DealSeed int64 `yaml:"deal_seed"`
	// StartingBalance funds the bankroll of a new player.
	StartingBalance int64 `yaml:"starting_balance"`
}

// TableConfig describes a table spawned at startup.
type TableConfig struct {
	ID              int64    `yaml:"id"`
	Name            string   `yaml:"name"`
	Variant         string   `yaml:"variant"`
	Seats           int      `yaml:"seats"`
	SmallBlind      int64    `yaml:"small_blind"`
	BigBlind        int64    `yaml:"big_blind"`
	BuyInMin        int64    `yaml:"buy_in_min"`
	BuyInBest       int64    `yaml:"buy_in_best"`
	BuyInMax        int64    `yaml:"buy_in_max"`
	RakePercent     int64    `yaml:"rake_percent"`
	RakeCap         int64    `yaml:"rake_cap"`
	PlayerTimeout   Duration `yaml:"player_timeout"`
	MuckTimeout     Duration `yaml:"muck_timeout"`
	MaxMissedRounds int      `yaml:"max_missed_rounds"`
	Currency        int      `yaml:"currency"`
	Transient       bool     `yaml:"transient"`
	// TourneySerial links the table to a tournament; zero means a
	// cash game.
	TourneySerial int64  `yaml:"tourney_serial"`
	TourneyName   string `yaml:"tourney_name"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:   ListenConfig{GRPC: "127.0.0.1:19500"},
		Database: DatabaseConfig{Driver: "sqlite3", DSN: "pokertable.db"},
		Log:      LogConfig{Level: "info", MaxFiles: 3, MaxSize: 10 * 1024},
		Settings: SettingsConfig{
			Autodeal:             true,
			AutodealDelay:        Duration(2 * time.Second),
			AutodealTransientMin: Duration(2 * time.Second),
			MaxMissedRounds:      5,
			TemporaryPattern:     "^BOT",
			WatchdogInterval:     Duration(5 * time.Minute),
			RefillPolicy:         "between-hands",
			MaxJoined:            1000,
			StartingBalance:      10000,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if c.Listen.GRPC == "" {
		errs = append(errs, errors.New("listen.grpc is required"))
	}
	if c.Settings.StartingBalance < 0 {
		errs = append(errs, errors.New("settings.starting_balance must not be negative"))
	}
	if _, err := c.Settings.refillPolicy(); err != nil {
		errs = append(errs, err)
	}
	for _, pattern := range []string{c.Settings.TemporaryPattern, c.Settings.ChatFilter} {
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("invalid pattern %q: %w", pattern, err))
		}
	}
	seen := make(map[int64]bool)
	for i, t := range c.Tables {
		switch {
		case t.ID <= 0:
			errs = append(errs, fmt.Errorf("tables[%d]: id must be positive", i))
		case seen[t.ID]:
			errs = append(errs, fmt.Errorf("tables[%d]: duplicate id %d", i, t.ID))
		}
		seen[t.ID] = true
		if t.Seats != 0 && (t.Seats < 2 || t.Seats > 10) {
			errs = append(errs, fmt.Errorf("tables[%d]: seats must be between 2 and 10", i))
		}
		if t.BuyInMax > 0 && t.BuyInMin > t.BuyInMax {
			errs = append(errs, fmt.Errorf("tables[%d]: buy_in_min above buy_in_max", i))
		}
	}
	return errors.Join(errs...)
}

func (s SettingsConfig) refillPolicy() (table.RefillPolicy, error) {
	switch s.RefillPolicy {
	case "", "between-hands":
		return table.RefillBetweenHands, nil
	case "mid-hand":
		return table.RefillMidHand, nil
	}
	return 0, fmt.Errorf("unknown refill policy %q", s.RefillPolicy)
}

// TableSettings converts the shared settings for the table package.
func (s SettingsConfig) TableSettings() (table.Settings, error) {
	policy, err := s.refillPolicy()
	if err != nil {
		return table.Settings{}, err
	}
	out := table.Settings{
		Autodeal:             s.Autodeal,
		AutodealTemporary:    s.AutodealTemporary,
		AutodealDelay:        s.AutodealDelay.D(),
		AutodealTransientMin: s.AutodealTransientMin.D(),
		AutodealMax:          s.AutodealMax.D(),
		MaxMissedRounds:      s.MaxMissedRounds,
		WatchdogInterval:     s.WatchdogInterval.D(),
		RefillPolicy:         policy,
	}
	if s.ChatFilter != "" {
		if out.ChatFilter, err = regexp.Compile(s.ChatFilter); err != nil {
			return table.Settings{}, err
		}
	}
	return out, nil
}

// TemporaryRegexp compiles TemporaryPattern; nil when it is empty.
func (s SettingsConfig) TemporaryRegexp() (*regexp.Regexp, error) {
	if s.TemporaryPattern == "" {
		return nil, nil
	}
	return regexp.Compile(s.TemporaryPattern)
}
