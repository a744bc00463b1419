package booth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velvetlens/internal/camera"
)

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(DefaultConfig(), &stepClock{now: testTime})

	first := m.Create()
	second := m.Create()
	assert.Equal(t, 2, m.Len())

	got, err := m.Get(first.ID().String())
	require.NoError(t, err)
	assert.Same(t, first, got)

	sessions := m.Sessions()
	require.Len(t, sessions, 2)
	assert.Same(t, first, sessions[0])
	assert.Same(t, second, sessions[1])

	require.NoError(t, m.Remove(first.ID().String()))
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(first.ID().String())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Remove(first.ID().String()), ErrSessionNotFound)
}

func TestManager_InvalidID(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)

	_, err := m.Get("not-a-uuid")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_SharedSource(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	existing := m.Create()

	m.SetSource(camera.Resolved(nil, errors.New("no device")))
	created := m.Create()
	assert.NotNil(t, m.Source())

	for _, s := range []*Session{existing, created} {
		require.Eventually(t, func() bool {
			state, _ := s.SourceState()
			return state == SourceUnavailable
		}, 2*time.Second, 10*time.Millisecond)
	}
}

func TestManager_ConfigDefaults(t *testing.T) {
	m := NewManager(Config{}, nil)
	cfg := m.Config()

	assert.Equal(t, 3, cfg.ReelCapacity)
	assert.Equal(t, 640, cfg.PhotoWidth)
	assert.Equal(t, 480, cfg.PhotoHeight)
	assert.Equal(t, "velvetlens-reel", cfg.FilenamePrefix)
	assert.Equal(t, DefaultConfig().TimestampLayout, cfg.TimestampLayout)
	// 0 は明示的な指定として残す
	assert.Equal(t, 0, cfg.Spacing)
}

func TestSaveComposite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	composite := &Composite{Filename: "velvetlens-reel-2024-05-06T10-00-00.png", Data: []byte("png")}

	path, err := SaveComposite(dir, composite)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, composite.Filename), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	path, err = SaveComposite(dir, nil)
	assert.NoError(t, err)
	assert.Empty(t, path)
}
