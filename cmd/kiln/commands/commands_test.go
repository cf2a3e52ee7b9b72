package commands_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/cmd/kiln/commands"
	"go.trai.ch/kiln/internal/adapters/config"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
)

type mockApp struct {
	buildFunc func(ctx context.Context) error
	watchFunc func(ctx context.Context, opts app.WatchOptions) error
	cleanFunc func(ctx context.Context, opts app.CleanOptions) error
}

func (m *mockApp) Build(ctx context.Context) error {
	if m.buildFunc != nil {
		return m.buildFunc(ctx)
	}
	return nil
}

func (m *mockApp) Watch(ctx context.Context, opts app.WatchOptions) error {
	if m.watchFunc != nil {
		return m.watchFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Clean(ctx context.Context, opts app.CleanOptions) error {
	if m.cleanFunc != nil {
		return m.cleanFunc(ctx, opts)
	}
	return nil
}

func TestCommands_Build(t *testing.T) {
	t.Run("runs the build", func(t *testing.T) {
		called := false
		cli := commands.New(&mockApp{buildFunc: func(context.Context) error {
			called = true
			return nil
		}})
		cli.SetArgs([]string{"build", "-C", t.TempDir()})

		require.NoError(t, cli.Execute(context.Background()))
		assert.True(t, called)
	})

	t.Run("returns error on build failure", func(t *testing.T) {
		cli := commands.New(&mockApp{buildFunc: func(context.Context) error {
			return errors.New("simulated error")
		}})
		cli.SetArgs([]string{"build", "-C", t.TempDir()})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("rejects arguments", func(t *testing.T) {
		cli := commands.New(&mockApp{})
		cli.SetArgs([]string{"build", "extra"})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		require.Error(t, cli.Execute(context.Background()))
	})
}

func TestCommands_Watch(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var got app.WatchOptions
		cli := commands.New(&mockApp{watchFunc: func(_ context.Context, opts app.WatchOptions) error {
			got = opts
			return nil
		}})
		cli.SetArgs([]string{"watch", "-C", t.TempDir()})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, app.WatchOptions{Addr: "127.0.0.1:3000", Debounce: 200 * time.Millisecond}, got)
	})

	t.Run("flags override the project file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName),
			[]byte("server:\n  host: 0.0.0.0\n  port: 8080\n"), 0o600))

		var got app.WatchOptions
		cli := commands.New(&mockApp{watchFunc: func(_ context.Context, opts app.WatchOptions) error {
			got = opts
			return nil
		}})
		cli.SetArgs([]string{"watch", "-C", dir, "--port", "9000", "--debounce", "1s"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, app.WatchOptions{Addr: "0.0.0.0:9000", Debounce: time.Second}, got)
	})
}

func TestCommands_Clean(t *testing.T) {
	var got app.CleanOptions
	cli := commands.New(&mockApp{cleanFunc: func(_ context.Context, opts app.CleanOptions) error {
		got = opts
		return nil
	}})
	cli.SetArgs([]string{"clean", "--state", "-C", t.TempDir()})

	require.NoError(t, cli.Execute(context.Background()))
	assert.True(t, got.State)
}

func TestCommands_SettingsHook(t *testing.T) {
	dir := t.TempDir()
	var gotDir string
	var gotSettings config.Settings

	cli := commands.New(&mockApp{})
	cli.SetSettingsHook(func(d string, s config.Settings) {
		gotDir = d
		gotSettings = s
	})
	cli.SetArgs([]string{"build", "-C", dir, "--log-json"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, dir, gotDir)
	assert.True(t, gotSettings.LogJSON)
}

func TestCommands_Version(t *testing.T) {
	cli := commands.New(&mockApp{})

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, buf.String(), "kiln version "+build.Version)
}
