package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/config"
	"go.trai.ch/kiln/internal/core/domain"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("kiln", pflag.ContinueOnError)
	fs.String("host", "127.0.0.1", "")
	fs.Int("port", 3000, "")
	fs.Duration("debounce", 200*time.Millisecond, "")
	fs.Bool("log-json", false, "")
	return fs
}

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := config.LoadSettings(t.TempDir(), newFlags())
	require.NoError(t, err)

	assert.Equal(t, config.Settings{
		Host:     "127.0.0.1",
		Port:     3000,
		Debounce: 200 * time.Millisecond,
	}, s)
	assert.Equal(t, "127.0.0.1:3000", s.Addr())
}

func TestLoadSettings_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), `
server:
  host: 0.0.0.0
  port: 4000
watch:
  debounce: 1s
`)
	t.Setenv("KILN_SERVER_PORT", "5000")
	t.Setenv("KILN_LOG_JSON", "true")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--debounce", "50ms"}))

	s, err := config.LoadSettings(dir, flags)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", s.Host, "file beats default")
	assert.Equal(t, 5000, s.Port, "env beats file")
	assert.Equal(t, 50*time.Millisecond, s.Debounce, "explicit flag beats file")
	assert.True(t, s.LogJSON)
}

func TestLoadSettings_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), "server: [")

	_, err := config.LoadSettings(dir, nil)
	require.ErrorIs(t, err, domain.ErrConfigParseFailed)
}
