package subproc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesStdout(t *testing.T) {
	res, err := Run(context.Background(), "echo", []string{"hello"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", string(res.Stdout))
}

func TestRunNonZeroExitReturnsStderrTail(t *testing.T) {
	res, err := Run(context.Background(), "sh", []string{"-c", "echo boom 1>&2; exit 3"}, Options{})
	require.Error(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, string(res.Stderr), "boom")
}

func TestRunStderrTailIsBounded(t *testing.T) {
	res, err := Run(context.Background(), "sh", []string{"-c", "yes x | head -c 5000 1>&2; exit 1"}, Options{})
	require.Error(t, err)
	assert.LessOrEqual(t, len(res.Stderr), stderrCaptureLimit)
}

func TestRunStdoutIsNotTruncated(t *testing.T) {
	const want = 5000
	res, err := Run(context.Background(), "sh", []string{"-c", "yes x | head -c 5000"}, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Stdout, want)
}

func TestRunHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	proc, resultCh := RunAsync(ctx, "sleep", []string{"30"}, Options{})
	require.Eventually(t, func() bool {
		return proc.started.Load()
	}, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case res := <-resultCh:
		_, err := res.Get()
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("expected subprocess to exit after context cancellation")
	}
}

func TestRunAsyncKillTerminatesProcess(t *testing.T) {
	proc, resultCh := RunAsync(context.Background(), "sleep", []string{"30"}, Options{})
	require.Eventually(t, func() bool {
		return proc.started.Load()
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, proc.Kill())
	// killing twice must be safe
	require.NoError(t, proc.Kill())

	select {
	case res := <-resultCh:
		_, err := res.Get()
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("expected subprocess to exit after Kill")
	}
}

func TestRunOptionsTimeoutExpires(t *testing.T) {
	start := time.Now()
	_, err := Run(context.Background(), "sleep", []string{"30"}, Options{Timeout: 100 * time.Millisecond})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunOnStderrLineCallback(t *testing.T) {
	var lines []string
	opts := Options{OnStderrLine: func(line string) {
		lines = append(lines, line)
	}}
	_, err := Run(context.Background(), "sh", []string{"-c", "echo one 1>&2; echo two 1>&2"}, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestProbeUsesDefaultTimeout(t *testing.T) {
	res, err := Probe(context.Background(), "echo", "probe-ok")
	require.NoError(t, err)
	assert.Contains(t, string(res.Stdout), "probe-ok")
}
