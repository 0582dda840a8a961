package toolchain

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds the configuration for tool execution.
type Config struct {
	// Timeout is the maximum time a single tool run may take.
	// Default: 10 minutes
	Timeout time.Duration

	// Output receives tool output as it is produced (verbose mode).
	// Nil means output is only captured and logged.
	Output io.Writer

	// WaitDelay bounds how long output is still read after the tool exits
	// or is killed, when a leftover child process keeps its pipes open.
	// Default: 2 seconds
	WaitDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:   10 * time.Minute,
		WaitDelay: 2 * time.Second,
	}
}

// Invocation describes one tool run.
type Invocation struct {
	// Path is the executable
	Path string
	// Args are passed verbatim, without shell interpretation
	Args []string
	// Dir is the working directory; empty means the current directory
	Dir string
	// Env entries are appended to the inherited environment
	Env []string
}

// Name returns the executable base name used in logs and errors.
func (inv Invocation) Name() string {
	return filepath.Base(inv.Path)
}

// String renders the command line for display.
func (inv Invocation) String() string {
	return strings.Join(append([]string{inv.Path}, inv.Args...), " ")
}

// Result is the outcome of a successful tool run.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner runs tool invocations. Executor is the os/exec implementation;
// tests substitute recorders.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (*Result, error)
}

// Executor runs vendor tools via os/exec.
type Executor struct {
	config Config
	logger *zap.Logger
}

// NewExecutor creates a new executor with the given configuration.
func NewExecutor(config Config, logger *zap.Logger) *Executor {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.WaitDelay <= 0 {
		config.WaitDelay = DefaultConfig().WaitDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		config: config,
		logger: logger,
	}
}

// Run executes the invocation, relaying stdout and stderr line by line to the
// logger (and to Config.Output when set) while capturing both.
//
// A non-zero exit status is a *ToolExecutionError; exceeding the timeout is a
// *TimeoutError.
func (e *Executor) Run(ctx context.Context, inv Invocation) (*Result, error) {
	startTime := time.Now()

	e.logger.Info("running tool",
		zap.String("tool", inv.Name()),
		zap.String("command", inv.String()),
		zap.String("dir", inv.Dir),
		zap.Duration("timeout", e.config.Timeout),
	)

	timeoutCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, inv.Path, inv.Args...)
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = append(cmd.Environ(), inv.Env...)
	}

	// Vendor tools unpack themselves and run as a child process, so the
	// whole process group is killed on timeout.
	setProcessGroup(cmd)
	cmd.WaitDelay = e.config.WaitDelay

	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		stdoutW.Close()
		stderrW.Close()
		return nil, &ToolExecutionError{
			Tool:     inv.Name(),
			ExitCode: -1,
			Err:      err,
		}
	}

	var (
		stdoutBuf, stderrBuf bytes.Buffer
		outMu                sync.Mutex
		wg                   sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.relay(inv.Name(), "stdout", stdoutR, &stdoutBuf, &outMu)
	}()
	go func() {
		defer wg.Done()
		e.relay(inv.Name(), "stderr", stderrR, &stderrBuf, &outMu)
	}()

	err := cmd.Wait()
	if errors.Is(err, exec.ErrWaitDelay) {
		// The tool exited but a child still held its output open.
		e.logger.Warn("tool left processes running",
			zap.String("tool", inv.Name()),
			zap.Duration("wait_delay", e.config.WaitDelay),
		)
		killProcessGroup(cmd)
		err = nil
	}
	stdoutW.Close()
	stderrW.Close()
	wg.Wait()
	duration := time.Since(startTime)

	result := &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: duration,
	}

	if timeoutCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return nil, &TimeoutError{
			Tool:    inv.Name(),
			Timeout: e.config.Timeout.String(),
		}
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%s interrupted: %w", inv.Name(), ctx.Err())
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		e.logger.Error("tool failed",
			zap.String("tool", inv.Name()),
			zap.Int("exit_code", result.ExitCode),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, &ToolExecutionError{
			Tool:     inv.Name(),
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
			Err:      err,
		}
	}

	e.logger.Info("tool finished",
		zap.String("tool", inv.Name()),
		zap.Duration("duration", duration),
		zap.Int("stdout_size", len(result.Stdout)),
		zap.Int("stderr_size", len(result.Stderr)),
	)

	return result, nil
}

// relay copies r line by line into buf, the logger and the configured output.
func (e *Executor) relay(tool, stream string, r io.Reader, buf *bytes.Buffer, outMu *sync.Mutex) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		buf.WriteString(line)
		buf.WriteByte('\n')

		if line == "" {
			continue
		}
		e.logger.Debug(line,
			zap.String("tool", tool),
			zap.String("stream", stream),
		)

		if e.config.Output != nil {
			outMu.Lock()
			_, _ = fmt.Fprintln(e.config.Output, line)
			outMu.Unlock()
		}
	}
	if err := scanner.Err(); err != nil {
		e.logger.Warn("failed to read tool output",
			zap.String("tool", tool),
			zap.String("stream", stream),
			zap.Error(err),
		)
		// Keep draining so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, r)
	}
}
