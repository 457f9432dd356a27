package fileio

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestOpen_PlainAndGzip(t *testing.T) {
	dir := t.TempDir()
	content := "##fileformat=VCFv4.2\n1\t100\t.\tA\tT\n"

	plain := filepath.Join(dir, "plain.vcf")
	require.NoError(t, os.WriteFile(plain, []byte(content), 0o644))

	// Compressed data under a misleading name is still detected.
	packed := filepath.Join(dir, "packed.vcf")
	require.NoError(t, os.WriteFile(packed, gzipBytes(t, content), 0o644))

	for _, path := range []string{plain, packed} {
		rc, err := Open(path)
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, content, string(data), path)
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.vcf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.vcf")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWrap_Empty(t *testing.T) {
	rc, err := Wrap(bytes.NewReader(nil))
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestAtomicFile_Commit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.vcf")

	a, err := CreateAtomic(path)
	require.NoError(t, err)
	_, err = io.WriteString(a, "hello\n")
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "output must not exist before commit")

	require.NoError(t, a.Commit())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestAtomicFile_Abort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.vcf")

	a, err := CreateAtomic(path)
	require.NoError(t, err)
	_, err = io.WriteString(a, "partial")
	require.NoError(t, err)
	a.Abort()
	a.Abort()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = a.Write([]byte("late"))
	assert.Error(t, err)
}

func TestAtomicFile_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.vcf.gz")

	a, err := CreateAtomic(path)
	require.NoError(t, err)
	_, err = io.WriteString(a, "compressed body\n")
	require.NoError(t, err)
	require.NoError(t, a.Commit())

	rc, err := Open(path)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "compressed body\n", string(data))
}
