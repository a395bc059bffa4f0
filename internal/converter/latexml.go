package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shaiso/Pericortex/internal/archive"
	"github.com/shaiso/Pericortex/internal/config"
	"github.com/shaiso/Pericortex/internal/telemetry"
)

// TexToHTML — конвертер TeX → HTML5 через latexmlc.
//
// Демонстрационная реализация: latexmlc сам читает и пишет zip-архивы
// (--whatsin/--whatsout archive) и кладёт лог в cortex.log внутри
// результата. Боевой воркер с защитами — latexml-plugin-cortex.
type TexToHTML struct {
	binary    string
	timeout   int
	extraArgs []string
	workDir   string
	runner    Runner
}

// NewTexToHTML создаёт конвертер из конфигурации воркера.
func NewTexToHTML(cfg config.WorkerConfig, runner Runner) *TexToHTML {
	binary := cfg.Converter.Binary
	if binary == "" {
		binary = config.DefaultLatexmlBinary
	}

	timeout := cfg.Converter.Timeout
	if timeout <= 0 {
		timeout = config.DefaultLatexmlLimit
	}

	if runner == nil {
		runner = ExecRunner{}
	}

	return &TexToHTML{
		binary:    binary,
		timeout:   timeout,
		extraArgs: cfg.Converter.ExtraArgs,
		workDir:   cfg.TempDir(),
		runner:    runner,
	}
}

// Convert запускает latexmlc и открывает получившийся архив.
func (c *TexToHTML) Convert(ctx context.Context, inputPath string) (io.ReadCloser, error) {
	destination := c.destinationFor(inputPath)

	res, err := c.runner.Run(ctx, c.binary, c.args(inputPath, destination)...)
	if err != nil {
		if !errors.Is(err, ErrNonZeroExit) {
			return nil, err
		}
		// latexmlc может завершиться с ошибкой, но оставить архив с логом
		telemetry.FromContext(ctx).Warn("latexmlc exited with errors",
			"error", err,
			"stderr", tail(res.Stderr, 500),
		)
	}

	out, err := archive.OpenTemp(destination)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoOutput, destination, err)
	}
	return out, nil
}

// destinationFor возвращает путь выходного архива для входа.
func (c *TexToHTML) destinationFor(inputPath string) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(c.workDir, stem+".html.zip")
}

// args собирает аргументы latexmlc.
func (c *TexToHTML) args(inputPath, destination string) []string {
	args := []string{
		"--whatsin", "archive",
		"--whatsout", "archive",
		"--format", "html5",
		"--pmml",
		"--cmml",
		"--mathtex",
		"--preload", "[ids]latexml.sty",
		"--nodefaultresources",
		"--inputencoding", "iso-8859-1",
		"--timeout", strconv.Itoa(c.timeout),
		"--log", "cortex.log",
	}
	args = append(args, c.extraArgs...)
	return append(args, "--destination", destination, inputPath)
}

// tail возвращает последние n байт вывода.
func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return "..." + string(b[len(b)-n:])
}
