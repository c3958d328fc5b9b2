package infrastructure

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/yourusername/mediagrab/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeScript creates an executable /bin/sh script in a temp dir and returns its path
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stub.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestProcessRunner_StreamsLines(t *testing.T) {
	script := writeScript(t, `echo "line one"
echo "warn one" >&2
echo "line two"`)

	var stdout, stderr []string
	result, err := NewProcessRunner(zap.NewNop()).Run(context.Background(), ProcessSpec{
		Binary:   script,
		OnStdout: func(line string) { stdout = append(stdout, line) },
		OnStderr: func(line string) { stderr = append(stderr, line) },
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, []string{"line one", "line two"}, stdout)
	assert.Equal(t, []string{"warn one"}, stderr)
	assert.Equal(t, "warn one\n", result.Stderr)
	assert.Empty(t, result.Stdout)
}

func TestProcessRunner_PassesArgsVerbatim(t *testing.T) {
	script := writeScript(t, `for arg in "$@"; do echo "$arg"; done`)
	args := []string{"/tmp/out dir/abc_%(title)s.%(ext)s", "https://example.com/v?a=1&b=2", "it's"}

	result, err := NewProcessRunner(nil).Run(context.Background(), ProcessSpec{
		Binary:        script,
		Args:          args,
		CaptureStdout: true,
	})

	require.NoError(t, err)
	assert.Equal(t, strings.Join(args, "\n")+"\n", string(result.Stdout))
}

func TestProcessRunner_NonZeroExitIsNotAnError(t *testing.T) {
	script := writeScript(t, `echo "ERROR: Unsupported URL" >&2
exit 3`)

	result, err := NewProcessRunner(nil).Run(context.Background(), ProcessSpec{Binary: script})

	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "ERROR: Unsupported URL\n", result.Stderr)
}

func TestProcessRunner_SpawnFailure(t *testing.T) {
	result, err := NewProcessRunner(nil).Run(context.Background(), ProcessSpec{
		Binary: filepath.Join(t.TempDir(), "does-not-exist"),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSpawnFailed))
	assert.Nil(t, result)
}

func TestProcessRunner_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewProcessRunner(nil).Run(ctx, ProcessSpec{
		Binary: writeScript(t, `echo never`),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCancelled))
	assert.False(t, errors.Is(err, domain.ErrSpawnFailed))
	assert.Nil(t, result)
}

func TestProcessRunner_LargeOutputOnBothStreams(t *testing.T) {
	// Enough output to fill the OS pipe buffers many times over
	script := writeScript(t, `i=0
while [ $i -lt 20000 ]; do
  echo "stdout line $i with some padding to make it longer"
  echo "stderr line $i with some padding to make it longer" >&2
  i=$((i+1))
done`)

	var stdoutLines, stderrLines int
	result, err := NewProcessRunner(nil).Run(context.Background(), ProcessSpec{
		Binary:   script,
		OnStdout: func(string) { stdoutLines++ },
		OnStderr: func(string) { stderrLines++ },
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, 20000, stdoutLines)
	assert.Equal(t, 20000, stderrLines)
}

func TestProcessRunner_CarriageReturnSplitsLines(t *testing.T) {
	script := writeScript(t, `printf '[download]  10%%\r[download]  20%%\r\ndone\n'`)

	var lines []string
	_, err := NewProcessRunner(nil).Run(context.Background(), ProcessSpec{
		Binary:   script,
		OnStdout: func(line string) { lines = append(lines, line) },
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"[download]  10%", "[download]  20%", "done"}, lines)
}

func TestProcessRunner_Cancellation(t *testing.T) {
	script := writeScript(t, `echo started
sleep 30`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	var once bool
	go func() {
		<-started
		cancel()
	}()

	begin := time.Now()
	_, err := NewProcessRunner(nil).Run(ctx, ProcessSpec{
		Binary: script,
		OnStdout: func(line string) {
			if line == "started" && !once {
				once = true
				close(started)
			}
		},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCancelled))
	assert.Less(t, time.Since(begin), 10*time.Second)
}

func TestScanLinesOrCR(t *testing.T) {
	input := "a\nb\r\nc\rd\r\re"
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanLinesOrCR)

	var tokens []string
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}

	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"a", "b", "c", "d", "", "e"}, tokens)
}
