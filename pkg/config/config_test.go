package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vctt94/pokertable/pkg/table"
)

const sample = `
listen:
  grpc: 0.0.0.0:19500
  websocket: 0.0.0.0:19501
database:
  driver: postgres
  dsn: postgresql://poker@localhost/poker?sslmode=disable
log:
  level: debug,STOR=trace
settings:
  autodeal_delay: 1500ms
  autodeal_max: 3s
  max_missed_rounds: 3
  chat_filter: "(?i)blackjack"
  refill_policy: mid-hand
tables:
  - id: 26
    name: One
    seats: 10
    small_blind: 5
    big_blind: 10
    player_timeout: 45s
  - id: 27
    name: Two
    transient: true
    tourney_serial: 9
    tourney_name: Sunday Freeroll
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:19501", cfg.Listen.WebSocket)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "debug,STOR=trace", cfg.Log.Level)
	// Unset values keep their defaults.
	require.Equal(t, 3, cfg.Log.MaxFiles)
	require.True(t, cfg.Settings.Autodeal)
	require.Equal(t, "^BOT", cfg.Settings.TemporaryPattern)
	require.EqualValues(t, 10000, cfg.Settings.StartingBalance)

	require.Len(t, cfg.Tables, 2)
	require.Equal(t, 45*time.Second, cfg.Tables[0].PlayerTimeout.D())
	require.True(t, cfg.Tables[1].Transient)
	require.Zero(t, cfg.Tables[0].TourneySerial)
	require.EqualValues(t, 9, cfg.Tables[1].TourneySerial)
	require.Equal(t, "Sunday Freeroll", cfg.Tables[1].TourneyName)

	settings, err := cfg.Settings.TableSettings()
	require.NoError(t, err)
	require.Equal(t, 1500*time.Millisecond, settings.AutodealDelay)
	require.Equal(t, 3*time.Second, settings.AutodealMax)
	require.Equal(t, 2*time.Second, settings.AutodealTransientMin)
	require.Equal(t, 5*time.Minute, settings.WatchdogInterval)
	require.Equal(t, 3, settings.MaxMissedRounds)
	require.Equal(t, table.RefillMidHand, settings.RefillPolicy)
	require.True(t, settings.ChatFilter.MatchString("BlackJack"))

	re, err := cfg.Settings.TemporaryRegexp()
	require.NoError(t, err)
	require.True(t, re.MatchString("BOT42"))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"bad duration", "settings:\n  autodeal_delay: soon\n", "invalid duration"},
		{"duration not scalar", "settings:\n  autodeal_delay: [1]\n", "duration must be a string"},
		{"refill policy", "settings:\n  refill_policy: always\n", "unknown refill policy"},
		{"chat filter", "settings:\n  chat_filter: \"(\"\n", "invalid pattern"},
		{"missing grpc", "listen:\n  grpc: \"\"\n", "listen.grpc is required"},
		{"table id", "tables:\n  - name: x\n", "id must be positive"},
		{"duplicate table", "tables:\n  - id: 1\n  - id: 1\n", "duplicate id 1"},
		{"seats", "tables:\n  - id: 1\n    seats: 11\n", "seats must be between"},
		{"buy-in", "tables:\n  - id: 1\n    buy_in_min: 10\n    buy_in_max: 5\n", "buy_in_min above buy_in_max"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pokertable.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(26), cfg.Tables[0].ID)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to read config file")
}

func TestDurationMarshal(t *testing.T) {
	out, err := yaml.Marshal(struct {
		D Duration `yaml:"d"`
	}{Duration(90 * time.Second)})
	require.NoError(t, err)
	require.Equal(t, "d: 1m30s\n", string(out))
}
