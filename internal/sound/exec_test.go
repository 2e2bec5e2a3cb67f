package sound

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecDeviceOpenChecksFile(t *testing.T) {
	dev := &ExecDevice{command: []string{"true"}}
	_, err := dev.Open(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)

	_, err = dev.Open(t.TempDir())
	assert.Error(t, err)
}

func TestExecClipPlayAndStop(t *testing.T) {
	file := filepath.Join(t.TempDir(), "alert.wav")
	require.NoError(t, os.WriteFile(file, []byte("RIFF"), 0644))

	// The file is passed as $1 and ignored.
	dev := &ExecDevice{command: []string{"sh", "-c", "sleep 5", "player"}}
	c, err := dev.Open(file)
	require.NoError(t, err)
	clip := c.(*execClip)

	require.NoError(t, clip.Play())
	assert.False(t, exited(clip.done))

	begin := time.Now()
	require.NoError(t, clip.Stop())
	assert.True(t, exited(clip.done))
	assert.Less(t, time.Since(begin), 4*time.Second)

	require.NoError(t, clip.Stop())
	require.NoError(t, clip.Close())
}

func TestNewExecDeviceUnknownPlayer(t *testing.T) {
	_, err := NewExecDevice("no-such-player-binary-xyz -q")
	assert.Error(t, err)
}
