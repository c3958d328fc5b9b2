package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/mediagrab/internal/domain"
)

const (
	// maxLineSize bounds a single output line; --dump-json emits one large line
	maxLineSize = 32 * 1024 * 1024

	// defaultWaitDelay is how long pipes may stay open after the process exits or is killed
	defaultWaitDelay = 5 * time.Second
)

// LineFunc receives one line of process output without its terminator
type LineFunc func(line string)

// ProcessSpec describes one external process invocation
type ProcessSpec struct {
	Binary        string
	Args          []string
	OnStdout      LineFunc
	OnStderr      LineFunc
	CaptureStdout bool // keep stdout in ProcessResult.Stdout
}

// ProcessResult is the outcome of a process that was started
type ProcessResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   string
	Duration time.Duration
}

// ProcessRunner launches external executables and streams their output line by line.
// Stdout and stderr are drained concurrently and the process is always reaped before Run returns.
type ProcessRunner struct {
	logger    *zap.Logger
	waitDelay time.Duration
}

// NewProcessRunner creates a new process runner
func NewProcessRunner(logger *zap.Logger) *ProcessRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessRunner{
		logger:    logger,
		waitDelay: defaultWaitDelay,
	}
}

// Run executes the process described by spec and blocks until it has exited and its output is drained.
//
// A start failure returns an error wrapping domain.ErrSpawnFailed and a nil result. A nonzero exit is
// not an error: inspect ProcessResult.ExitCode. Cancelling ctx kills the process group and returns an
// error wrapping domain.ErrCancelled.
func (r *ProcessRunner) Run(ctx context.Context, spec ProcessSpec) (*ProcessResult, error) {
	cmd := exec.CommandContext(ctx, spec.Binary, spec.Args...)
	configureProcessGroup(cmd)
	cmd.WaitDelay = r.waitDelay

	// exec copies the OS pipes into these writers from its own goroutines;
	// the errgroup readers below split them into lines.
	stdoutReader, stdoutWriter := io.Pipe()
	stderrReader, stderrWriter := io.Pipe()
	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderrWriter

	var stdoutBuf, stderrBuf bytes.Buffer

	r.logger.Debug("Starting process",
		zap.String("command", ShellEscapeCommand(spec.Binary, spec.Args...)))

	started := time.Now()
	if err := cmd.Start(); err != nil {
		stdoutWriter.Close()
		stderrWriter.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSpawnFailed, spec.Binary, err)
	}

	var g errgroup.Group
	g.Go(func() error {
		return drainLines(stdoutReader, func(line string) {
			if spec.CaptureStdout {
				stdoutBuf.WriteString(line)
				stdoutBuf.WriteByte('\n')
			}
			if spec.OnStdout != nil {
				spec.OnStdout(line)
			}
		})
	})
	g.Go(func() error {
		return drainLines(stderrReader, func(line string) {
			stderrBuf.WriteString(line)
			stderrBuf.WriteByte('\n')
			if spec.OnStderr != nil {
				spec.OnStderr(line)
			}
		})
	})

	waitErr := cmd.Wait()
	stdoutWriter.Close()
	stderrWriter.Close()
	drainErr := g.Wait()

	result := &ProcessResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdoutBuf.Bytes(),
		Stderr:   stderrBuf.String(),
		Duration: time.Since(started),
	}

	r.logger.Debug("Process exited",
		zap.String("binary", spec.Binary),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration))

	if waitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("%w: %w", domain.ErrCancelled, ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return result, fmt.Errorf("failed waiting for %s: %w", spec.Binary, waitErr)
		}
	}

	if drainErr != nil {
		return result, fmt.Errorf("failed reading %s output: %w", spec.Binary, drainErr)
	}

	return result, nil
}

// drainLines calls fn for every line read from r. If scanning stops early the rest of r is
// discarded so the writing side never blocks.
func drainLines(r io.Reader, fn LineFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	scanner.Split(scanLinesOrCR)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	err := scanner.Err()
	if err != nil {
		io.Copy(io.Discard, r)
	}
	return err
}

// scanLinesOrCR is bufio.ScanLines that also treats a lone '\r' as a terminator,
// since progress bars rewrite the current line with carriage returns.
func scanLinesOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		switch b {
		case '\n':
			return i + 1, data[:i], nil
		case '\r':
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if atEOF {
				return i + 1, data[:i], nil
			}
			// need one more byte to tell "\r" from "\r\n"
			return 0, nil, nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
