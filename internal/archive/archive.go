// Package archive превращает zip-архивы CorTeX в каталоги и обратно.
//
// Нужен конвертерам, чьи внешние инструменты не умеют работать с zip
// (например, Engrafo в docker). Сам протокольный движок архивы не разбирает.
package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Ошибки архивов.
var (
	// ErrUnsafePath — запись архива указывает за пределы каталога распаковки.
	ErrUnsafePath = errors.New("archive entry escapes destination")

	// ErrNotDirectory — упаковать можно только каталог.
	ErrNotDirectory = errors.New("not a directory")
)

// Unpack распаковывает zip-архив во временный каталог внутри parent.
//
// Имя каталога начинается с prefix. Вызывающий отвечает за удаление
// каталога (os.RemoveAll).
func Unpack(archivePath, parent, prefix string) (string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer r.Close()

	dir, err := os.MkdirTemp(parent, prefix)
	if err != nil {
		return "", fmt.Errorf("create unpack dir: %w", err)
	}

	for _, f := range r.File {
		if err := extractFile(f, dir); err != nil {
			os.RemoveAll(dir)
			return "", err
		}
	}

	return dir, nil
}

// extractFile извлекает одну запись архива в dir.
func extractFile(f *zip.File, dir string) error {
	target, err := safeJoin(dir, f.Name)
	if err != nil {
		return err
	}

	if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", f.Name, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}

	return dst.Close()
}

// safeJoin склеивает dir и имя записи, не давая выйти за пределы dir.
func safeJoin(dir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return filepath.Join(dir, cleaned), nil
}

// Pack упаковывает содержимое каталога dir в zip-файл внутри parent.
//
// Пути внутри архива — относительные к dir, разделитель "/".
// Возвращённый файл спозиционирован на начало и удаляется при Close.
func Pack(dir, parent string) (*TempFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	out, err := os.CreateTemp(parent, "cortex-pack-*.zip")
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	tmp := &TempFile{File: out}

	if err := writeZip(out, dir); err != nil {
		tmp.Close()
		return nil, err
	}

	if _, err := out.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("rewind archive: %w", err)
	}

	return tmp, nil
}

// writeZip пишет в w все обычные файлы из dir.
func writeZip(w io.Writer, dir string) error {
	zw := zip.NewWriter(w)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		header := &zip.FileHeader{
			Name:   filepath.ToSlash(rel),
			Method: zip.Deflate,
		}
		header.SetMode(0o755)

		entry, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("add %s: %w", rel, err)
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		if _, err := io.Copy(entry, src); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("pack %s: %w", dir, err)
	}

	return zw.Close()
}

// TempFile — временный файл, который удаляется при закрытии.
type TempFile struct {
	*os.File
}

// Close закрывает и удаляет файл.
func (t *TempFile) Close() error {
	closeErr := t.File.Close()
	if err := os.Remove(t.File.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return closeErr
}

// OpenTemp открывает существующий файл как TempFile.
func OpenTemp(path string) (*TempFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &TempFile{File: f}, nil
}
