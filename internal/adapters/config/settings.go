package config

import (
	"errors"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// EnvPrefix prefixes every environment override, e.g. KILN_SERVER_PORT.
const EnvPrefix = "KILN"

// Settings are the process-level options of a kiln invocation.
type Settings struct {
	Host     string
	Port     int
	Debounce time.Duration
	LogJSON  bool
}

// flagKeys maps command-line flags to settings keys.
var flagKeys = map[string]string{
	"host":     "server.host",
	"port":     "server.port",
	"debounce": "watch.debounce",
	"log-json": "log.json",
}

// LoadSettings resolves settings from, in increasing precedence, defaults, the
// server/watch/log sections of kiln.yaml in cwd, KILN_* environment variables
// and flags that were set explicitly.
func LoadSettings(cwd string, flags *pflag.FlagSet) (Settings, error) {
	v := viper.New()
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 3000)
	v.SetDefault("watch.debounce", 200*time.Millisecond)
	v.SetDefault("log.json", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(cwd, FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, errors.Join(domain.ErrConfigParseFailed, zerr.With(err, "path", path))
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, errors.Join(domain.ErrConfigReadFailed, zerr.With(err, "path", path))
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Settings{}, zerr.With(zerr.Wrap(err, "failed to bind flag"), "flag", name)
				}
			}
		}
	}

	return Settings{
		Host:     v.GetString("server.host"),
		Port:     v.GetInt("server.port"),
		Debounce: v.GetDuration("watch.debounce"),
		LogJSON:  v.GetBool("log.json"),
	}, nil
}

// Addr returns the host:port the development server listens on.
func (s Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
