package graph

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const segmentFASTA = ">1 LN:i:8\nACGT\nACGT\n>2\nT\n>s3\nGG\n>4\n"

func TestLoadFASTA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segments.fa")
	require.NoError(t, os.WriteFile(path, []byte(segmentFASTA), 0o644))

	s, err := LoadFASTA(path)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 1, s.Skipped())

	seq, ok := s.Sequence(1)
	require.True(t, ok)
	assert.Equal(t, "ACGTACGT", seq)

	seq, ok = s.Sequence(4)
	require.True(t, ok)
	assert.Empty(t, seq)

	_, ok = s.Sequence(3)
	assert.False(t, ok)
}

func TestLoadFASTA_Missing(t *testing.T) {
	_, err := LoadFASTA(filepath.Join(t.TempDir(), "none.fa"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScanFASTA_CallbackError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	_, err := ScanFASTA(strings.NewReader(segmentFASTA), func(uint64, string) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}
