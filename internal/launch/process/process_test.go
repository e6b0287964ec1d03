//go:build unix

package process

import (
	"context"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, p *Process) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
}

func TestStart_ForwardsOutputAndExitCode(t *testing.T) {
	var mu sync.Mutex
	lines := map[string][]string{}

	p, err := Start(context.Background(), Spec{
		Path: "/bin/sh",
		Args: []string{"-c", "echo one; echo two; echo oops 1>&2; exit 3"},
	}, func(stream, line string) {
		mu.Lock()
		lines[stream] = append(lines[stream], line)
		mu.Unlock()
	})
	require.NoError(t, err)
	assert.Greater(t, p.Pid(), 0)

	waitDone(t, p)

	assert.Equal(t, 3, p.ExitCode())
	assert.Error(t, p.Err())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"one", "two"}, lines[Stdout])
	assert.Equal(t, []string{"oops"}, lines[Stderr])
}

func TestStart_CleanExit(t *testing.T) {
	p, err := Start(context.Background(), Spec{Path: "/bin/sh", Args: []string{"-c", "exit 0"}}, nil)
	require.NoError(t, err)
	waitDone(t, p)
	assert.Equal(t, 0, p.ExitCode())
	assert.NoError(t, p.Err())
	assert.True(t, p.Exited())
}

func TestStart_MissingBinary(t *testing.T) {
	_, err := Start(context.Background(), Spec{Path: "/nonexistent/java"}, nil)
	assert.Error(t, err)

	_, err = Start(context.Background(), Spec{}, nil)
	assert.Error(t, err)
}

func TestStart_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Start(ctx, Spec{Path: "/bin/sh", Args: []string{"-c", "exit 0"}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStart_OwnProcessGroup(t *testing.T) {
	p, err := Start(context.Background(), Spec{Path: "/bin/sh", Args: []string{"-c", "sleep 5"}}, nil)
	require.NoError(t, err)
	defer func() { _ = p.Terminate(time.Second, time.Second) }()

	pgid, err := syscall.Getpgid(p.Pid())
	require.NoError(t, err)
	assert.Equal(t, p.Pid(), pgid)
}

func TestTerminate_StopsProcessGroup(t *testing.T) {
	p, err := Start(context.Background(), Spec{
		Path: "/bin/sh",
		Args: []string{"-c", "sleep 30 & sleep 30"},
	}, nil)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, p.Terminate(2*time.Second, 2*time.Second))
	assert.True(t, p.Exited())
	assert.Equal(t, -1, p.ExitCode(), "signaled processes report -1")
}

func TestTerminate_EscalatesToKill(t *testing.T) {
	p, err := Start(context.Background(), Spec{
		Path: "/bin/sh",
		Args: []string{"-c", "trap '' TERM; sleep 30"},
	}, nil)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	require.NoError(t, p.Terminate(100*time.Millisecond, 2*time.Second))
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestTerminate_AlreadyExited(t *testing.T) {
	p, err := Start(context.Background(), Spec{Path: "/bin/sh", Args: []string{"-c", "exit 0"}}, nil)
	require.NoError(t, err)
	waitDone(t, p)
	assert.NoError(t, p.Terminate(time.Millisecond, time.Millisecond))
}

func TestStart_DoneFollowsLeaderNotDescendants(t *testing.T) {
	var mu sync.Mutex
	var lines []string

	started := time.Now()
	p, err := Start(context.Background(), Spec{
		Path: "/bin/sh",
		Args: []string{"-c", "sleep 5 & echo hi; exit 0"},
	}, func(_, line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
	})
	require.NoError(t, err)
	pid := p.Pid()
	t.Cleanup(func() { _ = syscall.Kill(-pid, syscall.SIGKILL) })

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done waited for the background child")
	}
	assert.Less(t, time.Since(started), 2*time.Second)
	assert.Equal(t, 0, p.ExitCode())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"hi"}, lines)
}
