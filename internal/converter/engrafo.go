package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shaiso/Pericortex/internal/archive"
	"github.com/shaiso/Pericortex/internal/config"
	"github.com/shaiso/Pericortex/internal/telemetry"
)

// containerWorkDir — точка монтирования общего временного каталога в контейнере.
const containerWorkDir = "/workdir"

// cortexLogName — имя лог-файла в корне результата, которое ожидает CorTeX.
const cortexLogName = "cortex.log"

// Engrafo — конвертер через docker-образ Engrafo.
//
// Engrafo не умеет работать с zip, поэтому вход распаковывается в
// каталог, а выходной каталог после работы контейнера упаковывается
// обратно. stderr и stdout контейнера пишутся в cortex.log.
//
// Временный каталог воркера монтируется в контейнер как /workdir,
// поэтому входной и выходной каталоги создаются внутри него.
type Engrafo struct {
	image   string
	memory  string
	workDir string
	runner  Runner
}

// NewEngrafo создаёт конвертер из конфигурации воркера.
func NewEngrafo(cfg config.WorkerConfig, runner Runner) *Engrafo {
	image := cfg.Converter.Image
	if image == "" {
		image = config.DefaultEngrafoImage
	}

	memory := cfg.Converter.Memory
	if memory == "" {
		memory = config.DefaultEngrafoMemory
	}

	if runner == nil {
		runner = ExecRunner{}
	}

	return &Engrafo{
		image:   image,
		memory:  memory,
		workDir: cfg.TempDir(),
		runner:  runner,
	}
}

// Convert распаковывает вход, запускает контейнер и упаковывает результат.
func (c *Engrafo) Convert(ctx context.Context, inputPath string) (io.ReadCloser, error) {
	inputDir, err := archive.Unpack(inputPath, c.workDir, "engrafo_input")
	if err != nil {
		return nil, fmt.Errorf("unpack input: %w", err)
	}
	defer os.RemoveAll(inputDir)

	outputDir, err := os.MkdirTemp(c.workDir, "engrafo_output")
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	res, err := c.runner.Run(ctx, "docker", c.args(inputDir, outputDir)...)
	if err != nil {
		if !errors.Is(err, ErrNonZeroExit) {
			return nil, err
		}
		telemetry.FromContext(ctx).Warn("engrafo container exited with errors",
			"error", err,
			"stderr", tail(res.Stderr, 500),
		)
	}

	if err := writeCortexLog(outputDir, res); err != nil {
		return nil, err
	}

	packed, err := archive.Pack(outputDir, c.workDir)
	if err != nil {
		return nil, fmt.Errorf("pack output: %w", err)
	}
	return packed, nil
}

// args собирает аргументы docker run.
func (c *Engrafo) args(inputDir, outputDir string) []string {
	return []string{
		"run",
		"--rm",
		"-m", c.memory,
		"-v", c.workDir + ":" + containerWorkDir,
		"-w", containerWorkDir,
		c.image,
		"engrafo",
		c.containerPath(inputDir) + "/",
		c.containerPath(outputDir),
	}
}

// containerPath переводит путь внутри workDir в путь внутри контейнера.
func (c *Engrafo) containerPath(hostPath string) string {
	rel, err := filepath.Rel(c.workDir, hostPath)
	if err != nil {
		return hostPath
	}
	return containerWorkDir + "/" + filepath.ToSlash(rel)
}

// writeCortexLog пишет stderr и stdout контейнера в cortex.log.
func writeCortexLog(dir string, res CommandResult) error {
	f, err := os.Create(filepath.Join(dir, cortexLogName))
	if err != nil {
		return fmt.Errorf("create %s: %w", cortexLogName, err)
	}

	if _, err := f.Write(res.Stderr); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", cortexLogName, err)
	}
	if _, err := f.Write(res.Stdout); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", cortexLogName, err)
	}

	return f.Close()
}
