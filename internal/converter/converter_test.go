package converter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/shaiso/Pericortex/internal/config"
)

// fakeRunner записывает вызовы и выполняет заданное действие вместо процесса.
type fakeRunner struct {
	name  string
	args  []string
	calls int
	runFn func(name string, args []string) (CommandResult, error)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (CommandResult, error) {
	f.calls++
	f.name = name
	f.args = args
	if f.runFn == nil {
		return CommandResult{}, nil
	}
	return f.runFn(name, args)
}

func testConfig(t *testing.T, service string) config.WorkerConfig {
	t.Helper()
	cfg, err := config.Default(service)
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.WorkDir = t.TempDir()
	return cfg
}

// writeZip создаёт zip-архив с указанными файлами.
func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		w.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	f.Close()
}

// readZip возвращает содержимое zip-архива.
func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		out[f.Name] = string(b)
	}
	return out
}

// --- Echo Tests ---

func TestEcho_ReturnsInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.zip")
	if err := os.WriteFile(path, []byte("cortex peripherals - echo worker test"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := (&Echo{}).Convert(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer out.Close()

	got, _ := io.ReadAll(out)
	if string(got) != "cortex peripherals - echo worker test" {
		t.Errorf("unexpected echo output: %q", got)
	}
}

func TestEcho_MissingInput(t *testing.T) {
	_, err := (&Echo{}).Convert(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for missing input")
	}
}

// --- TexToHTML Tests ---

func TestTexToHTML_Args(t *testing.T) {
	cfg := testConfig(t, config.ServiceTexToHTML)
	input := filepath.Join(cfg.WorkDir, "tex_to_html-abc.zip")

	runner := &fakeRunner{runFn: func(_ string, args []string) (CommandResult, error) {
		dest := args[len(args)-2]
		return CommandResult{}, os.WriteFile(dest, []byte("PK-html"), 0o644)
	}}

	out, err := NewTexToHTML(cfg, runner).Convert(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if runner.name != "latexmlc" {
		t.Errorf("expected latexmlc, got %s", runner.name)
	}
	joined := strings.Join(runner.args, " ")
	for _, want := range []string{
		"--whatsin archive", "--whatsout archive", "--format html5",
		"--preload [ids]latexml.sty", "--timeout 300", "--log cortex.log",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q should contain %q", joined, want)
		}
	}
	if runner.args[len(runner.args)-1] != input {
		t.Errorf("last arg should be input path, got %s", runner.args[len(runner.args)-1])
	}

	dest := filepath.Join(cfg.WorkDir, "tex_to_html-abc.html.zip")
	if runner.args[len(runner.args)-2] != dest {
		t.Errorf("expected destination %s, got %s", dest, runner.args[len(runner.args)-2])
	}

	got, _ := io.ReadAll(out)
	if string(got) != "PK-html" {
		t.Errorf("unexpected output: %q", got)
	}
	out.Close()

	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("output archive should be removed after Close")
	}
}

func TestTexToHTML_NonZeroExitWithOutput(t *testing.T) {
	cfg := testConfig(t, config.ServiceTexToHTML)
	input := filepath.Join(cfg.WorkDir, "doc.zip")

	runner := &fakeRunner{runFn: func(_ string, args []string) (CommandResult, error) {
		os.WriteFile(args[len(args)-2], []byte("PK-partial"), 0o644)
		return CommandResult{Stderr: []byte("Error: undefined macro")}, ErrNonZeroExit
	}}

	out, err := NewTexToHTML(cfg, runner).Convert(context.Background(), input)
	if err != nil {
		t.Fatalf("non-zero exit with archive should not fail: %v", err)
	}
	out.Close()
}

func TestTexToHTML_NoOutput(t *testing.T) {
	cfg := testConfig(t, config.ServiceTexToHTML)

	runner := &fakeRunner{runFn: func(string, []string) (CommandResult, error) {
		return CommandResult{}, ErrNonZeroExit
	}}

	_, err := NewTexToHTML(cfg, runner).Convert(context.Background(), filepath.Join(cfg.WorkDir, "doc.zip"))
	if !errors.Is(err, ErrNoOutput) {
		t.Errorf("expected ErrNoOutput, got %v", err)
	}
}

func TestTexToHTML_CommandMissing(t *testing.T) {
	cfg := testConfig(t, config.ServiceTexToHTML)

	runner := &fakeRunner{runFn: func(string, []string) (CommandResult, error) {
		return CommandResult{}, ErrCommandFailed
	}}

	_, err := NewTexToHTML(cfg, runner).Convert(context.Background(), filepath.Join(cfg.WorkDir, "doc.zip"))
	if !errors.Is(err, ErrCommandFailed) {
		t.Errorf("expected ErrCommandFailed, got %v", err)
	}
}

// --- Engrafo Tests ---

func TestEngrafo_Convert(t *testing.T) {
	cfg := testConfig(t, config.ServiceEngrafo)
	input := filepath.Join(cfg.WorkDir, "engrafo-in.zip")
	writeZip(t, input, map[string]string{
		"paper.tex":   `\begin{document}hi\end{document}`,
		"img/fig.png": "png",
	})

	runner := &fakeRunner{runFn: func(_ string, args []string) (CommandResult, error) {
		// Последний аргумент — выходной каталог в контейнере
		out := args[len(args)-1]
		hostOut := filepath.Join(cfg.WorkDir, strings.TrimPrefix(out, containerWorkDir+"/"))

		in := strings.TrimSuffix(args[len(args)-2], "/")
		hostIn := filepath.Join(cfg.WorkDir, strings.TrimPrefix(in, containerWorkDir+"/"))
		if _, err := os.Stat(filepath.Join(hostIn, "paper.tex")); err != nil {
			t.Errorf("input should be unpacked before docker run: %v", err)
		}

		if err := os.WriteFile(filepath.Join(hostOut, "index.html"), []byte("<html/>"), 0o644); err != nil {
			t.Fatalf("write output: %v", err)
		}
		return CommandResult{Stdout: []byte("done\n"), Stderr: []byte("warn: font\n")}, nil
	}}

	out, err := NewEngrafo(cfg, runner).Convert(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := io.ReadAll(out)
	out.Close()

	if runner.name != "docker" {
		t.Errorf("expected docker, got %s", runner.name)
	}
	joined := strings.Join(runner.args, " ")
	for _, want := range []string{
		"run", "-m 4g", "-v " + cfg.WorkDir + ":/workdir", "-w /workdir", "arxivvanity/engrafo:2.0.0 engrafo",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q should contain %q", joined, want)
		}
	}

	files := readZip(t, data)
	if files["index.html"] != "<html/>" {
		t.Errorf("expected index.html in result, got %v", files)
	}
	if files["cortex.log"] != "warn: font\ndone\n" {
		t.Errorf("cortex.log should hold stderr then stdout, got %q", files["cortex.log"])
	}

	// Временные каталоги должны быть удалены
	entries, _ := os.ReadDir(cfg.WorkDir)
	for _, e := range entries {
		if e.IsDir() {
			t.Errorf("temporary dir left behind: %s", e.Name())
		}
	}
}

func TestEngrafo_BadInput(t *testing.T) {
	cfg := testConfig(t, config.ServiceEngrafo)
	input := filepath.Join(cfg.WorkDir, "broken.zip")
	os.WriteFile(input, []byte("not a zip"), 0o644)

	runner := &fakeRunner{}
	_, err := NewEngrafo(cfg, runner).Convert(context.Background(), input)
	if err == nil {
		t.Error("expected error for broken input archive")
	}
	if runner.calls != 0 {
		t.Error("docker should not run for broken input")
	}
}

// --- Registry Tests ---

func TestNewRegistry_DefaultConverters(t *testing.T) {
	r := NewRegistry()

	for _, service := range []string{config.ServiceEcho, config.ServiceTexToHTML, config.ServiceEngrafo} {
		cfg := testConfig(t, service)
		conv, err := r.Build(cfg, nil)
		if err != nil {
			t.Errorf("expected converter for %s, got error: %v", service, err)
		}
		if conv == nil {
			t.Errorf("converter for %s should not be nil", service)
		}
	}
}

func TestRegistry_UnknownService(t *testing.T) {
	r := NewRegistry()

	_, err := r.Build(config.WorkerConfig{Service: "unknown"}, nil)
	if !errors.Is(err, ErrUnknownService) {
		t.Errorf("expected ErrUnknownService, got %v", err)
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Register("custom", func(config.WorkerConfig, Runner) Converter {
		return Func(func(context.Context, string) (io.ReadCloser, error) {
			called = true
			return io.NopCloser(strings.NewReader("x")), nil
		})
	})

	conv, err := r.Build(config.WorkerConfig{Service: "custom"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conv.Convert(context.Background(), "in")
	if !called {
		t.Error("custom converter should be used")
	}
}
