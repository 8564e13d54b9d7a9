package pacman

import (
	"context"
	"strings"
	"sync"

	"pacdeck/internal/executor"
)

// reply is a scripted runner response.
type reply struct {
	stdout string
	stderr string
	exit   int
	err    error
	panic  string
	block  bool // wait for ctx before answering
}

// fakeRunner answers commands from a script keyed by the full command line.
type fakeRunner struct {
	mu      sync.Mutex
	script  map[string]reply
	calls   []executor.Command
	started chan string
}

func newFakeRunner(script map[string]reply) *fakeRunner {
	return &fakeRunner{script: script, started: make(chan string, 64)}
}

func (f *fakeRunner) Run(ctx context.Context, cmd executor.Command) (*executor.Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	r, ok := f.script[cmd.String()]
	f.mu.Unlock()

	select {
	case f.started <- cmd.String():
	default:
	}

	if !ok {
		return &executor.Output{Stderr: "error: no script for " + cmd.String(), ExitCode: 1}, nil
	}
	if r.panic != "" {
		panic(r.panic)
	}
	if r.block {
		<-ctx.Done()
		return &executor.Output{ExitCode: -1}, &executor.RunError{Kind: executor.ErrCanceled, Command: cmd, Err: ctx.Err()}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &executor.Output{Stdout: r.stdout, Stderr: r.stderr, ExitCode: r.exit}, nil
}

func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines := make([]string, len(f.calls))
	for i, c := range f.calls {
		lines[i] = c.String()
	}
	return lines
}

func (f *fakeRunner) callCount(prefix string) int {
	n := 0
	for _, line := range f.commands() {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

func repoInfo(name, version string) string {
	return "Repository      : extra\n" +
		"Name            : " + name + "\n" +
		"Version         : " + version + "\n" +
		"Description     : test package\n"
}
