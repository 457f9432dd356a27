package spool

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCodec(t *testing.T) {
	for _, c := range []Codec{CodecNone, CodecLZ4, CodecZstd} {
		got, err := ParseCodec(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCodec("brotli")
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestSpool_Replay(t *testing.T) {
	body := strings.Repeat("chr1\t100\t.\tA\tT\t.\tPASS\tDP=10\n", 5000)

	for _, codec := range []Codec{CodecNone, CodecLZ4, CodecZstd} {
		t.Run(codec.String(), func(t *testing.T) {
			dir := t.TempDir()
			s, err := Create(dir, codec)
			require.NoError(t, err)
			defer s.Remove()

			_, err = s.WriteString(body[:100])
			require.NoError(t, err)
			_, err = s.Write([]byte(body[100:]))
			require.NoError(t, err)
			assert.Equal(t, int64(len(body)), s.Size())

			var out bytes.Buffer
			n, err := s.Replay(&out)
			require.NoError(t, err)
			assert.Equal(t, int64(len(body)), n)
			assert.Equal(t, body, out.String())
		})
	}
}

func TestSpool_RemoveDeletesFile(t *testing.T) {
	dir := t.TempDir()
	s, err := Create(dir, CodecZstd)
	require.NoError(t, err)
	s.Remove()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSpool_RemoveReleasesEncoder(t *testing.T) {
	for _, codec := range []Codec{CodecLZ4, CodecZstd} {
		t.Run(codec.String(), func(t *testing.T) {
			dir := t.TempDir()
			s, err := Create(dir, codec)
			require.NoError(t, err)
			_, err = s.WriteString("abandoned\n")
			require.NoError(t, err)

			s.Remove()
			assert.Nil(t, s.enc)
			s.Remove()

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestSpool_RemoveAfterReplay(t *testing.T) {
	s, err := Create(t.TempDir(), CodecZstd)
	require.NoError(t, err)
	_, err = s.WriteString("line\n")
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = s.Replay(&out)
	require.NoError(t, err)
	assert.Nil(t, s.enc)
	s.Remove()
	assert.Equal(t, "line\n", out.String())
}
