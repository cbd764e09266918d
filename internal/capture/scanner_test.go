package capture

import (
	"io"
	"io/fs"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFiles(t *testing.T, fsys afero.Fs, dir string, names ...string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(dir, 0o755))
	for _, n := range names {
		require.NoError(t, afero.WriteFile(fsys, dir+"/"+n, []byte(n), 0o644))
	}
}

func TestScanner_Scan(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, "images",
		"WIN_20230704_09_15_02.jpg",
		"WIN_20230704_09_00_10.jpg",
		"README.txt",
		"WIN_20230704_09_30_59.png",
	)
	require.NoError(t, fsys.MkdirAll("images/thumbs.jpg", 0o755))

	s := NewScanner(fsys, NewCodec("WIN", ".jpg"), testLogger())
	got, err := s.Scan("images")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "WIN_20230704_09_00_10.jpg", got[0].Name)
	assert.Equal(t, time.Date(2023, time.July, 4, 9, 0, 10, 0, time.UTC), got[0].Time)
	assert.Equal(t, int64(len("WIN_20230704_09_00_10.jpg")), got[0].Size)
	assert.Equal(t, "WIN_20230704_09_15_02.jpg", got[1].Name)

	assert.Equal(t, []time.Time{got[0].Time, got[1].Time}, Timestamps(got))
}

func TestScanner_EmptyDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, "images", "notes.txt")

	got, err := NewScanner(fsys, NewCodec("", ""), testLogger()).Scan("images")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanner_MissingDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()

	_, err := NewScanner(fsys, NewCodec("", ""), testLogger()).Scan("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestScanner_MalformedNameAbortsScan(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, "images",
		"WIN_20230704_09_00_10.jpg",
		"WIN_broken.jpg",
	)

	_, err := NewScanner(fsys, NewCodec("WIN", ".jpg"), testLogger()).Scan("images")
	assert.ErrorIs(t, err, ErrMalformedFilename)
}

func TestScanner_UnpaddedHourAbortsScan(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, "images",
		"WIN_20230704_09_00_10.jpg",
		"WIN_20230704_9_05_07.jpg",
	)

	codec := NewCodec("WIN", ".jpg")
	_, err := NewScanner(fsys, codec, testLogger()).Scan("images")
	require.ErrorIs(t, err, ErrMalformedFilename)

	var mfe *MalformedFilenameError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, "WIN_20230704_9_05_07.jpg", mfe.Filename)
}

func TestScanner_NamesRoundTrip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, "images",
		"WIN_20230704_00_00_00.jpg",
		"WIN_20230704_09_05_07.jpg",
		"WIN_20231231_23_59_59.jpg",
	)

	codec := NewCodec("WIN", ".jpg")
	captures, err := NewScanner(fsys, codec, testLogger()).Scan("images")
	require.NoError(t, err)
	require.Len(t, captures, 3)
	for _, c := range captures {
		assert.Equal(t, c.Name, codec.Format(c.Time))
	}
}
