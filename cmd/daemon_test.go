package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stalePID is above the largest pid_max Linux allows, so no process has it.
const stalePID = 1 << 22

func TestPIDFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	require.NoError(t, writePID(path, 4242))

	pid, err := readPID(path)
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "4242\n", string(data))
}

func TestReadPID_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := readPID(filepath.Join(dir, "missing.pid"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	for name, body := range map[string]string{
		"empty":    "",
		"garbage":  "not-a-pid\n",
		"zero":     "0\n",
		"negative": "-12\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".pid")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := readPID(path)
			assert.ErrorContains(t, err, "invalid pid")
		})
	}

	padded := filepath.Join(dir, "padded.pid")
	require.NoError(t, os.WriteFile(padded, []byte("  77 \n\n"), 0o600))
	pid, err := readPID(padded)
	require.NoError(t, err)
	assert.Equal(t, 77, pid)
}

func TestStateFile_RoundTrip(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "daemon.pid")
	assert.Equal(t, pidFile+".json", statePath(pidFile))

	want := daemonRuntimeState{
		PID:       99,
		Addr:      "127.0.0.1:8787",
		StartedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Source:    "/data/tutorials.zip",
	}
	require.NoError(t, writeState(statePath(pidFile), want))

	got, err := readState(statePath(pidFile))
	require.NoError(t, err)
	assert.Equal(t, want.PID, got.PID)
	assert.Equal(t, want.Addr, got.Addr)
	assert.Equal(t, want.Source, got.Source)
	assert.True(t, want.StartedAt.Equal(got.StartedAt))

	require.NoError(t, os.WriteFile(statePath(pidFile), []byte("{"), 0o600))
	_, err = readState(statePath(pidFile))
	assert.Error(t, err)
}

func TestEnsureDaemonNotRunning(t *testing.T) {
	dir := t.TempDir()

	t.Run("no pid file", func(t *testing.T) {
		assert.NoError(t, ensureDaemonNotRunning(filepath.Join(dir, "none.pid")))
	})

	t.Run("stale pid file is removed", func(t *testing.T) {
		pidFile := filepath.Join(dir, "stale.pid")
		require.NoError(t, writePID(pidFile, stalePID))
		require.NoError(t, writeState(statePath(pidFile), daemonRuntimeState{PID: stalePID}))

		require.NoError(t, ensureDaemonNotRunning(pidFile))
		assert.NoFileExists(t, pidFile)
		assert.NoFileExists(t, statePath(pidFile))
	})

	t.Run("live pid refuses", func(t *testing.T) {
		pidFile := filepath.Join(dir, "live.pid")
		require.NoError(t, writePID(pidFile, os.Getpid()))

		err := ensureDaemonNotRunning(pidFile)
		assert.ErrorContains(t, err, "already running")
		assert.FileExists(t, pidFile)
	})

	t.Run("corrupt pid file", func(t *testing.T) {
		pidFile := filepath.Join(dir, "corrupt.pid")
		require.NoError(t, os.WriteFile(pidFile, []byte("x"), 0o600))
		assert.ErrorContains(t, ensureDaemonNotRunning(pidFile), "invalid pid")
	})
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"daemon", "--detach", "--addr", ":9000", "--detach=true", "-q"})
	assert.Equal(t, []string{"daemon", "--addr", ":9000", "-q"}, got)
	assert.Empty(t, filterDetachArg(nil))
}
