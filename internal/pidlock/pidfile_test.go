package pidlock

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	path := t.TempDir() + "/run.lock"
	l := New(path)
	require.NoError(t, l.Acquire())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	require.NoError(t, l.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestAcquireRemovesStaleLockFromDeadPID(t *testing.T) {
	path := t.TempDir() + "/run.lock"
	require.NoError(t, os.WriteFile(path, []byte("999999999\n"), 0644))

	l := New(path)
	require.NoError(t, l.Acquire())
	require.NoError(t, l.Release())
}
