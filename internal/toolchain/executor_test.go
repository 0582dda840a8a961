package toolchain

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

// writeFakeTool writes an executable shell script standing in for a vendor tool.
func writeFakeTool(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("failed to write fake tool: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Timeout != 10*time.Minute {
		t.Errorf("expected Timeout to be 10 minutes, got %s", config.Timeout)
	}
	if config.Output != nil {
		t.Error("expected no output writer by default")
	}
	if config.WaitDelay != 2*time.Second {
		t.Errorf("expected WaitDelay to be 2 seconds, got %s", config.WaitDelay)
	}
}

func TestNewExecutor_Defaults(t *testing.T) {
	executor := NewExecutor(Config{}, nil)

	if executor.config.Timeout != DefaultConfig().Timeout {
		t.Errorf("expected default timeout, got %s", executor.config.Timeout)
	}
	if executor.logger == nil {
		t.Error("expected non-nil logger")
	}
}

func TestInvocation_String(t *testing.T) {
	inv := Invocation{Path: "/sdk/bflb_iot_tool-ubuntu", Args: []string{"--chipname=bl602", "--erase"}}

	if inv.Name() != "bflb_iot_tool-ubuntu" {
		t.Errorf("Name() = %q", inv.Name())
	}
	if inv.String() != "/sdk/bflb_iot_tool-ubuntu --chipname=bl602 --erase" {
		t.Errorf("String() = %q", inv.String())
	}
}

func TestExecutor_RunCapturesOutput(t *testing.T) {
	dir := t.TempDir()
	tool := writeFakeTool(t, dir, "fake_tool", `echo "args: $*"
pwd
echo "warning" >&2`)

	var out bytes.Buffer
	executor := NewExecutor(Config{Timeout: 10 * time.Second, Output: &out}, zap.NewNop())

	result, err := executor.Run(context.Background(), Invocation{
		Path: tool,
		Args: []string{"--chipname", "bl616"},
		Dir:  dir,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !strings.Contains(result.Stdout, "args: --chipname bl616") {
		t.Errorf("Stdout = %q, missing arguments", result.Stdout)
	}
	resolved, _ := filepath.EvalSymlinks(dir)
	if !strings.Contains(result.Stdout, dir) && !strings.Contains(result.Stdout, resolved) {
		t.Errorf("Stdout = %q, tool did not run in %s", result.Stdout, dir)
	}
	if strings.TrimSpace(result.Stderr) != "warning" {
		t.Errorf("Stderr = %q, want warning", result.Stderr)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
	if !strings.Contains(out.String(), "args: --chipname bl616") || !strings.Contains(out.String(), "warning") {
		t.Errorf("verbose output = %q, want both streams", out.String())
	}
}

func TestExecutor_RunEnv(t *testing.T) {
	dir := t.TempDir()
	tool := writeFakeTool(t, dir, "env_tool", `echo "value=$BFLB_TEST_VALUE"`)

	executor := NewExecutor(Config{Timeout: 10 * time.Second}, zap.NewNop())
	result, err := executor.Run(context.Background(), Invocation{
		Path: tool,
		Env:  []string{"BFLB_TEST_VALUE=42"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.TrimSpace(result.Stdout) != "value=42" {
		t.Errorf("Stdout = %q", result.Stdout)
	}
}

func TestExecutor_RunNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	tool := writeFakeTool(t, dir, "failing_tool", `echo "eflash loader handshake failed" >&2
exit 3`)

	executor := NewExecutor(Config{Timeout: 10 * time.Second}, zap.NewNop())
	_, err := executor.Run(context.Background(), Invocation{Path: tool})

	var execErr *ToolExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected *ToolExecutionError, got %T: %v", err, err)
	}
	if execErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", execErr.ExitCode)
	}
	if !strings.Contains(execErr.Stderr, "handshake failed") {
		t.Errorf("Stderr = %q", execErr.Stderr)
	}
	if !strings.Contains(err.Error(), "failing_tool failed (exit code 3)") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestExecutor_RunMissingBinary(t *testing.T) {
	executor := NewExecutor(Config{Timeout: time.Second}, zap.NewNop())
	_, err := executor.Run(context.Background(), Invocation{Path: filepath.Join(t.TempDir(), "missing")})

	var execErr *ToolExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected *ToolExecutionError, got %T", err)
	}
	if execErr.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", execErr.ExitCode)
	}
}

func TestExecutor_RunTimeout(t *testing.T) {
	dir := t.TempDir()
	tool := writeFakeTool(t, dir, "slow_tool", `exec sleep 5`)

	executor := NewExecutor(Config{Timeout: 100 * time.Millisecond}, zap.NewNop())
	_, err := executor.Run(context.Background(), Invocation{Path: tool})

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *TimeoutError, got %T: %v", err, err)
	}
	if timeoutErr.Tool != "slow_tool" {
		t.Errorf("Tool = %q, want slow_tool", timeoutErr.Tool)
	}
}

func TestExecutor_RunTimeoutKillsChildren(t *testing.T) {
	dir := t.TempDir()
	// The shell forks sleep, which inherits stdout and stderr.
	tool := writeFakeTool(t, dir, "forking_tool", `sleep 5
echo done`)

	executor := NewExecutor(Config{Timeout: 200 * time.Millisecond}, zap.NewNop())
	start := time.Now()
	_, err := executor.Run(context.Background(), Invocation{Path: tool})
	elapsed := time.Since(start)

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *TimeoutError, got %T: %v", err, err)
	}
	if elapsed > 3*time.Second {
		t.Errorf("Run() returned after %s, want the timeout to stop the child too", elapsed)
	}
}

func TestExecutor_RunLeftoverChild(t *testing.T) {
	dir := t.TempDir()
	tool := writeFakeTool(t, dir, "daemonizing_tool", `sleep 5 &
echo started`)

	executor := NewExecutor(Config{Timeout: time.Minute, WaitDelay: 100 * time.Millisecond}, zap.NewNop())
	start := time.Now()
	result, err := executor.Run(context.Background(), Invocation{Path: tool})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(result.Stdout, "started") {
		t.Errorf("Stdout = %q, want it to contain %q", result.Stdout, "started")
	}
	if elapsed > 3*time.Second {
		t.Errorf("Run() returned after %s, want it bounded by WaitDelay", elapsed)
	}
}

func TestExecutor_RunCancelled(t *testing.T) {
	dir := t.TempDir()
	tool := writeFakeTool(t, dir, "slow_tool", `exec sleep 5`)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	executor := NewExecutor(Config{Timeout: time.Minute}, zap.NewNop())
	_, err := executor.Run(ctx, Invocation{Path: tool})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
