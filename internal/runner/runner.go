package runner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	// stderrTail is how many trailing stderr lines are kept for error messages.
	stderrTail = 8
	waitDelay  = 5 * time.Second
)

type StderrFunc func(ctx context.Context, line string)

type Command struct {
	Path    string
	Args    []string
	Env     []string // appended to os.Environ()
	Timeout time.Duration
}

// String renders the command as a shell line. Arguments containing spaces
// or quotes are quoted, flags keep the form --flag="a b".
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Path))
	for _, a := range c.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	if !strings.ContainsAny(s, " \t\"'") {
		return s
	}
	escaped := strings.ReplaceAll(s, `"`, `\"`)
	if k, v, ok := strings.Cut(escaped, "="); ok && strings.HasPrefix(k, "-") && !strings.ContainsAny(k, " \t") {
		return k + `="` + v + `"`
	}
	return `"` + escaped + `"`
}

type Result struct {
	Path    string
	Args    []string
	Started time.Time
	Stopped time.Time
	State   *os.ProcessState
	Stdout  *bytes.Buffer
	Stderr  []string // last lines of stderr
	Err     error
}

// Runner is a thin wrapper on top of os/exec, which runs a command to
// completion and captures its stdout. It holds no per-command state, so one
// Runner can be shared by concurrent scans.
type Runner struct {
	stderrFunc StderrFunc
}

func New() Runner {
	return Runner{}
}

// WithStderrFunc makes the runner pass each stderr line to f.
func (r Runner) WithStderrFunc(f StderrFunc) Runner {
	r.stderrFunc = f
	return r
}

// Run starts the command and waits until it ends, the timeout expires or ctx
// is canceled. Result.Err is an *exec.Error if the binary can't be started and
// an *exec.ExitError if it exits with non zero code.
func (r Runner) Run(ctx context.Context, proto Command) Result {
	result := Result{
		Path: proto.Path,
		Args: append([]string(nil), proto.Args...),
	}

	if proto.Timeout == 0 {
		slog.DebugContext(ctx, "command has no timeout", "path", proto.Path)
	} else {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, proto.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, proto.Path, proto.Args...)
	if len(proto.Env) > 0 {
		cmd.Env = append(os.Environ(), proto.Env...)
	}
	var stdout bytes.Buffer
	result.Stdout = &stdout
	cmd.Stdout = &stdout

	tail := newTail(stderrTail)
	lw := &lineWriter{ctx: ctx, tail: tail, fn: r.stderrFunc}
	cmd.Stderr = lw
	// browser processes spawned by the command may keep the pipes open
	cmd.WaitDelay = waitDelay

	result.Started = time.Now().UTC()
	if err := cmd.Start(); err != nil {
		result.Stopped = time.Now().UTC()
		result.Err = err
		return result
	}

	result.Err = cmd.Wait()
	lw.flush()
	result.Stopped = time.Now().UTC()
	result.State = cmd.ProcessState
	result.Stderr = tail.lines()
	if result.Err != nil && ctx.Err() != nil {
		result.Err = fmt.Errorf("%w: %w", ctx.Err(), result.Err)
	}
	return result
}

// Output runs the command and returns its stdout. Non zero exit is an error,
// which carries the stderr tail.
func (r Runner) Output(ctx context.Context, proto Command) ([]byte, error) {
	res := r.Run(ctx, proto)
	if res.Err != nil {
		if len(res.Stderr) > 0 {
			return nil, fmt.Errorf("%s failed: %w: %s", proto.Path, res.Err, strings.Join(res.Stderr, "\n"))
		}
		return nil, fmt.Errorf("%s failed: %w", proto.Path, res.Err)
	}
	return res.Stdout.Bytes(), nil
}

// lineWriter splits stderr into lines.
type lineWriter struct {
	ctx     context.Context
	tail    *tail
	fn      StderrFunc
	partial []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		w.line(string(bytes.TrimRight(w.partial[:i], "\r")))
		w.partial = w.partial[i+1:]
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	if len(w.partial) > 0 {
		w.line(string(w.partial))
		w.partial = nil
	}
}

func (w *lineWriter) line(s string) {
	w.tail.add(s)
	if w.fn != nil {
		w.fn(w.ctx, s)
	}
}

type tail struct {
	max int
	buf []string
}

func newTail(max int) *tail {
	return &tail{max: max}
}

func (t *tail) add(line string) {
	t.buf = append(t.buf, line)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
}

func (t *tail) lines() []string {
	if len(t.buf) == 0 {
		return nil
	}
	return append([]string(nil), t.buf...)
}
