package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprinterDeterministic(t *testing.T) {
	build := func(values ...float64) string {
		f := NewFingerprinter()
		for i, v := range values {
			f.AddInt64(int64(i))
			f.AddFloat64(v)
			f.AddBool(i%2 == 0)
		}
		return f.Sum()
	}

	assert.Equal(t, build(1, 2, 3), build(1, 2, 3))
	assert.NotEqual(t, build(1, 2, 3), build(1, 2, 4))
	assert.Len(t, build(), 8)
}

func TestCalculateFingerprint(t *testing.T) {
	assert.Equal(t, CalculateFingerprint([]byte("a,1\n")), CalculateFingerprint([]byte("a,1\n")))
	assert.NotEqual(t, CalculateFingerprint([]byte("a,1\n")), CalculateFingerprint([]byte("a,2\n")))
}

func TestFileInfoReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")
	require.NoError(t, os.WriteFile(path, []byte("1,2\n3,4\n"), 0644))

	info, err := GetFileInfo(path)
	require.NoError(t, err)
	assert.Equal(t, int64(8), info.Size)

	assert.False(t, info.Replaced(info.Inode, 8))
	assert.True(t, info.Replaced(info.Inode, 9), "size below offset means truncation")
	if info.Inode != 0 {
		assert.True(t, info.Replaced(info.Inode+1, 0))
	}
	assert.False(t, info.Replaced(0, 0))
}
