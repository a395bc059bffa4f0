package worker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shaiso/Pericortex/internal/domain"
)

// sendHeader отправляет заголовок отчёта: identity, сервис, task id.
func (w *Worker) sendHeader(ctx context.Context, task *domain.Task) error {
	headers := [][]byte{w.identity.Bytes(), []byte(task.Service), []byte(task.ID)}
	for _, frame := range headers {
		if err := w.delivery.Send(ctx, frame, true); err != nil {
			return fmt.Errorf("%w: send header of task %s: %w", ErrTaskAborted, task.ID, err)
		}
	}
	return nil
}

// reportEmpty отправляет отчёт "задача ничего не дала":
// заголовок и один пустой финальный фрейм.
func (w *Worker) reportEmpty(ctx context.Context, task *domain.Task) error {
	task.MarkReportingEmpty()

	if err := w.sendHeader(ctx, task); err != nil {
		return err
	}
	if err := w.delivery.Send(ctx, nil, false); err != nil {
		return fmt.Errorf("%w: send empty marker of task %s: %w", ErrTaskAborted, task.ID, err)
	}

	task.Finish()
	return nil
}

// deliver стримит результат в sink фреймами по MessageSize байт.
//
// Каждый фрейм, кроме последнего, ровно MessageSize байт. Последний —
// остаток; если размер результата кратен MessageSize, последним уходит
// пустой фрейм.
//
// Первый фрейм читается до отправки заголовка: пустой или нечитаемый
// результат превращается в ErrNoOutput, и отчёт ещё можно отправить.
// Ошибка чтения посреди стрима (ErrOutputRead) закрывает сообщение
// пустым финальным фреймом.
func (w *Worker) deliver(ctx context.Context, task *domain.Task, output io.Reader) error {
	buf := make([]byte, w.cfg.MessageSize)

	n, last, err := readChunk(output, buf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoOutput, err)
	}
	if n == 0 && last {
		return ErrNoOutput
	}

	task.MarkDelivering()
	if err := w.sendHeader(ctx, task); err != nil {
		return err
	}

	var sent int64
	for {
		if err := w.delivery.Send(ctx, buf[:n], !last); err != nil {
			return fmt.Errorf("%w: send output of task %s: %w", ErrTaskAborted, task.ID, err)
		}
		sent += int64(n)

		if last {
			break
		}

		n, last, err = readChunk(output, buf)
		if err != nil {
			if sendErr := w.delivery.Send(ctx, nil, false); sendErr != nil {
				return fmt.Errorf("%w: close output of task %s: %w", ErrTaskAborted, task.ID, sendErr)
			}
			task.OutputSize = sent
			return fmt.Errorf("%w: %v", ErrOutputRead, err)
		}
	}

	task.MarkDelivered(sent)
	return nil
}

// readChunk заполняет buf целиком. last=true, если данные кончились.
func readChunk(r io.Reader, buf []byte) (n int, last bool, err error) {
	n, err = io.ReadFull(r, buf)
	switch {
	case err == nil:
		return n, false, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return n, true, nil
	default:
		return n, false, err
	}
}
