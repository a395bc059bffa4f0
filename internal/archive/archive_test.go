package archive

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestPackUnpack_RoundTrip(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	files := map[string]string{
		"main.tex":        `\documentclass{article}`,
		"figures/fig1.ps": "%!PS",
		"cortex.log":      "Info: ok",
	}
	writeTree(t, src, files)

	packed, err := Pack(src, tmp)
	require.NoError(t, err)
	packedPath := packed.Name()

	// Файл должен быть спозиционирован на начало
	head := make([]byte, 2)
	_, err = io.ReadFull(packed, head)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(head))

	// Копируем архив, т.к. TempFile удаляется при Close
	copyPath := filepath.Join(tmp, "copy.zip")
	_, err = packed.Seek(0, io.SeekStart)
	require.NoError(t, err)
	data, err := io.ReadAll(packed)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(copyPath, data, 0o644))

	require.NoError(t, packed.Close())
	_, err = os.Stat(packedPath)
	assert.True(t, os.IsNotExist(err), "packed archive should be removed on Close")

	dir, err := Unpack(copyPath, tmp, "unpacked")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	for name, content := range files {
		got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		require.NoError(t, err, name)
		assert.Equal(t, content, string(got), name)
	}
}

func TestUnpack_RejectsTraversal(t *testing.T) {
	tmp := t.TempDir()
	archivePath := filepath.Join(tmp, "evil.zip")

	f, err := os.Create(archivePath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("../escape.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("nope"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = Unpack(archivePath, tmp, "evil")
	assert.ErrorIs(t, err, ErrUnsafePath)

	_, err = os.Stat(filepath.Join(tmp, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestUnpack_NotAZip(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "plain.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := Unpack(path, tmp, "plain")
	assert.Error(t, err)
}

func TestPack_NotDirectory(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := Pack(path, tmp)
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestOpenTemp_RemovesOnClose(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "out.zip")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	f, err := OpenTemp(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
