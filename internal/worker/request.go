package worker

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/shaiso/Pericortex/internal/archive"
	"github.com/shaiso/Pericortex/internal/domain"
)

// requestTask запрашивает задачу и принимает вход во временный файл.
//
// Память ограничена одним фреймом: фреймы пишутся в файл по мере
// получения. Если файл записать не удалось, фреймы всё равно
// дочитываются до конца, а задача помечается как неудачная, чтобы
// диспетчер получил отчёт.
//
// Ошибка означает сбой транспорта; задача в этом случае не создаётся.
func (w *Worker) requestTask(ctx context.Context) (*domain.Task, *archive.TempFile, error) {
	if err := w.request.Send(ctx, []byte(w.cfg.Service), false); err != nil {
		return nil, nil, fmt.Errorf("%w: request task: %w", ErrTaskAborted, err)
	}

	idFrame, more, err := w.request.Recv(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: receive task id: %w", ErrTaskAborted, err)
	}

	task := domain.NewTask(string(idFrame), w.cfg.Service)
	w.current = task

	input, stageErr := w.createStaging()

	for more {
		var frame []byte
		frame, more, err = w.request.Recv(ctx)
		if err != nil {
			if input != nil {
				input.Close()
			}
			return nil, nil, fmt.Errorf("%w: receive input of task %s: %w", ErrTaskAborted, task.ID, err)
		}

		task.InputSize += int64(len(frame))

		if stageErr == nil {
			if _, err := input.Write(frame); err != nil {
				stageErr = err
			}
		}
	}

	if stageErr == nil {
		// Вход писался последовательно: конвертер читает с начала
		if _, err := input.Seek(0, io.SeekStart); err != nil {
			stageErr = err
		}
	}

	if stageErr != nil {
		task.MarkFailed(fmt.Errorf("%w: %v", ErrStaging, stageErr).Error())
	}

	return task, input, nil
}

// createStaging создаёт временный файл для входа задачи.
//
// Имя уникально в пределах процесса: слоты одного воркера не делят файлы.
func (w *Worker) createStaging() (*archive.TempFile, error) {
	name := fmt.Sprintf("%s-%s.zip", w.cfg.Service, uuid.NewString())
	path := filepath.Join(w.cfg.TempDir(), name)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}

	return &archive.TempFile{File: f}, nil
}
