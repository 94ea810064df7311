//go:build !windows

package open_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opst/gemdclient/pkg/configs/open"
)

func TestNewSafeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile")
	require.NoError(t, os.WriteFile(path, []byte("stale content"), 0o600))

	f, err := open.NewSafeFile(path)
	require.NoError(t, err)
	defer f.Close()

	stat, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stat.Size(), "existing content should be truncated")
	assert.Equal(t, os.FileMode(0o600), stat.Mode().Perm())
}
