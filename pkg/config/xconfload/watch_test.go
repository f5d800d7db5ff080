package xconfload

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatch_ReloadOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := writeTempFile(t, "budget.yaml", "permits: 1")
	src, err := Load(path)
	require.NoError(t, err)

	changed := make(chan error, 4)
	w, err := Watch(src, func(_ *Source, err error) {
		changed <- err
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	w.StartAsync()
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(path, []byte("permits: 8"), 0o600))

	select {
	case err := <-changed:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}

	assert.Equal(t, 8, src.Koanf().Int("permits"))
}

func TestWatch_BytesSourceRejected(t *testing.T) {
	src, err := FromBytes([]byte("permits: 1"), FormatYAML)
	require.NoError(t, err)

	_, err = Watch(src, nil)
	assert.ErrorIs(t, err, ErrWatchUnsupported)
}

func TestWatch_StopIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := writeTempFile(t, "budget.yaml", "permits: 1")
	src, err := Load(path)
	require.NoError(t, err)

	w, err := Watch(src, nil)
	require.NoError(t, err)
	w.StartAsync()

	require.NoError(t, w.Stop())
	// 第二次 Stop 应为空操作
	require.NoError(t, w.Stop())
}
