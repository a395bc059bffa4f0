package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// CommandResult — вывод внешнего процесса.
type CommandResult struct {
	Stdout []byte
	Stderr []byte
}

// Runner запускает внешние процессы. Подменяется в тестах.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// ExecRunner — Runner на базе os/exec.
type ExecRunner struct{}

// Run запускает процесс и ждёт его завершения.
//
// Ненулевой код выхода возвращается как ErrNonZeroExit вместе с выводом;
// невозможность запуска — как ErrCommandFailed.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := CommandResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, fmt.Errorf("%w: %s: %v", ErrNonZeroExit, name, err)
	}
	return res, fmt.Errorf("%w: %s: %v", ErrCommandFailed, name, err)
}
