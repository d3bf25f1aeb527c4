package lighthouse_test

import (
	"context"
	"sync"

	"github.com/CZERTAINLY/lighthouse/internal/runner"
)

// fakeExec returns canned output and remembers the commands it got.
type fakeExec struct {
	out []byte
	err error

	mu       sync.Mutex
	commands []runner.Command
}

func (f *fakeExec) Output(_ context.Context, cmd runner.Command) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	return f.out, f.err
}
