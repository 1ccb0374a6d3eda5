package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingFileRotatesOnSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netssh.log")

	rf, err := NewRotatingFile(path, 10, 2)
	require.NoError(t, err)
	defer rf.Close()

	_, err = rf.Write([]byte("0123456789")) // fills to maxSize exactly, no rotation yet
	require.NoError(t, err)
	_, err = rf.Write([]byte("x")) // pushes over maxSize, triggers rotation first
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
}

func TestRotatingFileShiftsBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netssh.log")

	rf, err := NewRotatingFile(path, 1, 2)
	require.NoError(t, err)
	defer rf.Close()

	for i := 0; i < 5; i++ {
		_, err := rf.Write([]byte("ab"))
		require.NoError(t, err)
	}

	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err))
}
