// Package packager bundles the staged output directory into a .pak archive
// with UnrealPak.
package packager

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/okian/lootscale/pkg/logger"
)

const (
	// Executable is the UnrealPak binary name inside the tool directory.
	Executable = "UnrealPak.exe"
	// FileList is the response file UnrealPak reads.
	FileList = "filelist.txt"
)

// Sentinel kinds for packaging errors.
var (
	ErrToolDirRequired = errors.New("unreal pak directory is required")
	ErrPackFailed      = errors.New("unreal pak failed")
)

// Command describes one external process invocation.
type Command struct {
	Path string
	Args []string
	Dir  string
}

// Runner executes a command, streaming its output to stdout and stderr.
type Runner interface {
	Run(ctx context.Context, cmd Command, stdout, stderr io.Writer) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, c Command, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Option applies a configuration option to the Packager.
type Option func(*Packager)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(p *Packager) {
		if r != nil {
			p.runner = r
		}
	}
}

// WithLogger sets the packager logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Packager) {
		if l != nil {
			p.log = l
		}
	}
}

// Packager drives UnrealPak.
type Packager struct {
	dir    string
	runner Runner
	log    logger.Logger
}

// New creates a Packager for the UnrealPak installation in dir.
func New(dir string, opts ...Option) (*Packager, error) {
	if dir == "" {
		return nil, ErrToolDirRequired
	}
	p := &Packager{
		dir:    dir,
		runner: ExecRunner{},
		log:    logger.Get().Named("packager"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// FileListContent is the filelist UnrealPak consumes: every file under
// outputDir, mounted three levels up from the pak's content root.
func FileListContent(outputDir string) string {
	return fmt.Sprintf(`"%s\*.*" "..\..\..\*.*"`, outputDir)
}

// Pack writes the filelist, runs UnrealPak and returns the .pak path,
// which sits next to outputDir.
func (p *Packager) Pack(ctx context.Context, outputDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	listPath := filepath.Join(p.dir, FileList)
	if err := os.WriteFile(listPath, []byte(FileListContent(outputDir)), 0o644); err != nil {
		return "", fmt.Errorf("write filelist: %w", err)
	}
	p.log.Info(ctx, "filelist written", logger.String("path", listPath))

	pak := outputDir + ".pak"
	cmd := Command{
		Path: filepath.Join(p.dir, Executable),
		Args: []string{pak, "-create=" + FileList},
		Dir:  p.dir,
	}
	p.log.Info(ctx, "creating pak file", logger.String("pak", pak))

	stdout := p.lineWriter(ctx, false)
	stderr := p.lineWriter(ctx, true)
	err := p.runner.Run(ctx, cmd, stdout, stderr)
	_ = stdout.Close()
	_ = stderr.Close()
	stdout.wait()
	stderr.wait()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPackFailed, err)
	}
	p.log.Info(ctx, "pak file created", logger.String("pak", pak))
	return pak, nil
}

// streamWriter forwards each written line to the logger.
type streamWriter struct {
	*io.PipeWriter
	done sync.WaitGroup
}

func (w *streamWriter) wait() { w.done.Wait() }

func (p *Packager) lineWriter(ctx context.Context, isErr bool) *streamWriter {
	pr, pw := io.Pipe()
	w := &streamWriter{PipeWriter: pw}
	w.done.Add(1)
	go func() {
		defer w.done.Done()
		sc := bufio.NewScanner(pr)
		for sc.Scan() {
			if isErr {
				p.log.Warn(ctx, "unrealpak", logger.String("stderr", sc.Text()))
			} else {
				p.log.Info(ctx, "unrealpak", logger.String("stdout", sc.Text()))
			}
		}
		_ = pr.CloseWithError(sc.Err())
	}()
	return w
}
