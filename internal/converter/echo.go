package converter

import (
	"context"
	"io"
	"os"
)

// Echo — конвертер для тестов: возвращает вход без изменений.
type Echo struct{}

// Convert открывает входной файл на чтение.
func (e *Echo) Convert(_ context.Context, inputPath string) (io.ReadCloser, error) {
	return os.Open(inputPath)
}
