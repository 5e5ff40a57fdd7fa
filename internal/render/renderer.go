// Package render typesets article fields into PDF documents with an external
// LaTeX compiler.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"confportal.org/internal/ids"
	"confportal.org/internal/obs"
)

// ErrRenderFailure wraps every error returned by Render.
var ErrRenderFailure = errors.New("render: failure")

const (
	defaultCompiler = "pdflatex"
	defaultTimeout  = 60 * time.Second
	defaultWorkers  = 2

	sourceName = "article.tex"
	outputName = "article.pdf"

	logTailLines  = 20
	maxOutputSize = 64 << 10
)

// Config tunes the compiler invocation.
type Config struct {
	Compiler string
	Timeout  time.Duration
	Workers  int
	WorkDir  string
}

// Renderer runs the compiler on a bounded pool. Each invocation gets its own
// working directory, so concurrent renders never share files.
type Renderer struct {
	compiler string
	timeout  time.Duration
	workDir  string
	sem      *semaphore.Weighted
}

func New(cfg Config) *Renderer {
	if strings.TrimSpace(cfg.Compiler) == "" {
		cfg.Compiler = defaultCompiler
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	return &Renderer{
		compiler: cfg.Compiler,
		timeout:  cfg.Timeout,
		workDir:  cfg.WorkDir,
		sem:      semaphore.NewWeighted(int64(cfg.Workers)),
	}
}

// Render typesets doc and returns the PDF bytes.
func (r *Renderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: waiting for a worker: %v", ErrRenderFailure, err)
	}
	obs.RenderSlotAcquired()
	defer func() {
		obs.RenderSlotReleased()
		r.sem.Release(1)
	}()

	start := time.Now()
	pdf, err := r.run(ctx, BuildSource(doc))
	obs.ObserveRender(time.Since(start), err)
	if err != nil {
		obs.Logger().Warn("render_failed", "error", err.Error(), "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	return pdf, nil
}

func (r *Renderer) run(ctx context.Context, source []byte) ([]byte, error) {
	dir, err := os.MkdirTemp(r.workDir, "render-"+ids.New()+"-")
	if err != nil {
		return nil, fmt.Errorf("%w: create work dir: %v", ErrRenderFailure, err)
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, sourceName)
	if err := os.WriteFile(src, source, 0o600); err != nil {
		return nil, fmt.Errorf("%w: write source: %v", ErrRenderFailure, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.compiler,
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-no-shell-escape",
		"-output-directory", dir,
		src,
	)
	cmd.Dir = dir
	cmd.WaitDelay = 2 * time.Second
	out := &limitedBuffer{max: maxOutputSize}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: compiler timed out after %s", ErrRenderFailure, r.timeout)
		}
		return nil, fmt.Errorf("%w: %s: %v: %s", ErrRenderFailure, r.compiler, err, tail(out.String(), logTailLines))
	}

	pdf, err := os.ReadFile(filepath.Join(dir, outputName))
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", ErrRenderFailure, err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return nil, fmt.Errorf("%w: compiler produced no PDF", ErrRenderFailure)
	}
	return pdf, nil
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// limitedBuffer keeps the last max bytes written to it.
type limitedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	b.buf.Write(p)
	if over := b.buf.Len() - b.max; over > 0 {
		b.buf.Next(over)
	}
	return n, nil
}

func (b *limitedBuffer) String() string { return b.buf.String() }
