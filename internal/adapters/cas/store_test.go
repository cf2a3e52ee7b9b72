package cas_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestStore_PutAndGet(t *testing.T) {
	store, err := cas.NewStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	info := domain.BuildInfo{
		TaskName:   "styles",
		OutputHash: "00ff",
		Files:      []string{"css/main.css", "css/main.min.css"},
		Timestamp:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, store.Put(info))

	got, err := store.Get("styles")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, info, *got)

	missing, err := store.Get("scripts")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOpener_Persistence(t *testing.T) {
	root := t.TempDir()

	first, err := cas.Opener{}.Open(root)
	require.NoError(t, err)
	require.NoError(t, first.Put(domain.BuildInfo{TaskName: "templates", OutputHash: "abc"}))

	assert.FileExists(t, filepath.Join(root, ".kiln", "state.json"))

	second, err := cas.Opener{}.Open(root)
	require.NoError(t, err)
	got, err := second.Get("templates")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "abc", got.OutputHash)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := cas.NewStore(path)
	require.ErrorIs(t, err, domain.ErrStoreReadFailed)
}

func TestStore_ConcurrentPut(t *testing.T) {
	store, err := cas.NewStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, kind := range domain.ProducerKinds {
		wg.Go(func() {
			assert.NoError(t, store.Put(domain.BuildInfo{TaskName: string(kind)}))
		})
	}
	wg.Wait()

	for _, kind := range domain.ProducerKinds {
		got, err := store.Get(string(kind))
		require.NoError(t, err)
		assert.NotNil(t, got)
	}
}
