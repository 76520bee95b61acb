package testrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// waitDelay bounds how long Wait keeps draining stderr after the child is
// killed or exits while a grandchild still holds the pipe.
const waitDelay = 2 * time.Second

// Process is a started test-execution collaborator.
type Process interface {
	// Stdout is the event stream.
	Stdout() io.Reader
	// Wait blocks until the process exits and releases its resources.
	Wait() error
	// Kill stops the process immediately.
	Kill() error
}

// Launcher starts the collaborator for an invocation under env.
type Launcher interface {
	Launch(ctx context.Context, inv Invocation, env []string) (Process, error)
}

// ExecLauncher runs the invocation as a local child process.
type ExecLauncher struct {
	// Stderr receives the child's stderr. Defaults to os.Stderr.
	Stderr io.Writer
}

// Launch implements Launcher. The program is looked up on the PATH of env,
// not of the current process, so the profile's toolchain is what runs.
func (l ExecLauncher) Launch(ctx context.Context, inv Invocation, env []string) (Process, error) {
	if len(inv.Command) == 0 {
		return nil, errors.New("no test command given")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	program, err := LookPath(inv.Command[0], envValue(env, "PATH"))
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, program, inv.Command[1:]...)
	cmd.WaitDelay = waitDelay
	cmd.Dir = inv.Dir
	cmd.Env = env
	cmd.Stderr = l.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout of %s: %w", program, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", program, err)
	}
	return &execProcess{cmd: cmd, stdout: stdout}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }

func (p *execProcess) Wait() error { return p.cmd.Wait() }

func (p *execProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// exitCode extracts the exit status from a Wait error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return -1
}

// LookPath finds an executable on pathList (a PATH value) instead of the
// current process's PATH. Names containing a separator are used as is.
func LookPath(name, pathList string) (string, error) {
	if strings.Contains(name, string(filepath.Separator)) || pathList == "" {
		return exec.LookPath(name)
	}
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() && info.Mode()&0111 != 0 {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
}

func envValue(env []string, key string) string {
	prefix := key + "="
	value := ""
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			value = kv[len(prefix):]
		}
	}
	return value
}
