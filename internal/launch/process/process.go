// Package process starts and supervises the game process of a launch.
package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// ErrKillFailed is returned by Terminate when the process group outlives the timeout.
var ErrKillFailed = errors.New("process did not exit after kill")

// Output streams.
const (
	Stdout = "stdout"
	Stderr = "stderr"
)

// maxLineSize bounds a single forwarded output line.
const maxLineSize = 256 * 1024

// outputDrain bounds how long output is still read after the leader exits.
// Descendants that inherited the pipes are cut off after it.
const outputDrain = 500 * time.Millisecond

// Spec describes the command to run.
type Spec struct {
	Path string
	Args []string
	Dir  string
	Env  []string
}

// OutputFunc receives each line the process writes. Calls for one stream are sequential.
type OutputFunc func(stream, line string)

// Process is a started game process.
type Process struct {
	cmd  *exec.Cmd
	pid  int
	done chan struct{}

	mu       sync.Mutex
	exitCode int
	waitErr  error
	exitedAt time.Time
}

// Start spawns spec in its own process group and returns once the process is running.
// ctx only bounds the spawn; cancel the process with Terminate.
func Start(ctx context.Context, spec Spec, onOutput OutputFunc) (*Process, error) {
	if spec.Path == "" {
		return nil, errors.New("command is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	setProcessGroup(cmd)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	// *os.File outputs keep Wait from waiting on copy goroutines, so it
	// returns as soon as the leader exits.
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		closeAll(stdoutR, stdoutW, stderrR, stderrW)
		return nil, fmt.Errorf("start %s: %w", spec.Path, err)
	}
	closeAll(stdoutW, stderrW)

	p := &Process{
		cmd:      cmd,
		pid:      cmd.Process.Pid,
		done:     make(chan struct{}),
		exitCode: -1,
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go p.forward(&readers, stdoutR, Stdout, onOutput)
	go p.forward(&readers, stderrR, Stderr, onOutput)

	go func() {
		err := cmd.Wait()

		p.mu.Lock()
		p.waitErr = err
		p.exitedAt = time.Now()
		if cmd.ProcessState != nil {
			p.exitCode = cmd.ProcessState.ExitCode()
		}
		p.mu.Unlock()

		drained := make(chan struct{})
		go func() {
			readers.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(outputDrain):
			closeAll(stdoutR, stderrR)
			<-drained
		}
		closeAll(stdoutR, stderrR)
		close(p.done)
	}()

	return p, nil
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

func (p *Process) forward(wg *sync.WaitGroup, r io.Reader, stream string, onOutput OutputFunc) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if onOutput != nil {
			onOutput(stream, scanner.Text())
		}
	}
	// Keep draining after an over-long line so the child never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, r)
}

// Pid returns the OS process id.
func (p *Process) Pid() int {
	return p.pid
}

// Done is closed once the leader process has exited and its output has been
// forwarded. Output still held open by background descendants is read for
// at most outputDrain after the exit.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitCode returns the exit status, or -1 while running or when killed by a signal.
func (p *Process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Err returns the error reported by Wait, if any.
func (p *Process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitErr
}

// Exited reports whether the process has exited.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Terminate stops the whole process group: SIGTERM, then SIGKILL after grace.
// It returns ErrKillFailed if the process has still not exited timeout after the kill.
func (p *Process) Terminate(grace, timeout time.Duration) error {
	if p.Exited() {
		return nil
	}

	signalTerm(p.cmd)

	select {
	case <-p.done:
		return nil
	case <-time.After(grace):
	}

	signalKill(p.cmd)

	select {
	case <-p.done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%w: pid %d", ErrKillFailed, p.pid)
	}
}
