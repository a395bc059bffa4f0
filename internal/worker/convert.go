package worker

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shaiso/Pericortex/internal/domain"
)

// convert вызывает конвертер ровно один раз. Паника конвертера
// превращается в ошибку и не роняет слот.
func (w *Worker) convert(ctx context.Context, task *domain.Task, inputPath string) (output io.ReadCloser, err error) {
	task.MarkConverting()
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = fmt.Errorf("%w: %v", ErrConversionPanic, r)
		}
		w.metrics.ObserveConversion(w.cfg.Service, time.Since(started))
	}()

	output, err = w.converter.Convert(ctx, inputPath)
	if err == nil && output == nil {
		err = ErrNoOutput
	}
	return output, err
}
