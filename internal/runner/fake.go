package runner

import (
	"strings"
	"sync"
)

// Call records one invocation seen by a Fake.
type Call struct {
	Executable string
	Args       []string
}

// Line returns the arguments joined by spaces.
func (c Call) Line() string {
	return strings.Join(c.Args, " ")
}

type scripted struct {
	prefix string
	fn     func(args []string) Result
}

// Fake is a scripted Runner for tests. Responses are matched against the
// space-joined arguments by prefix, most recently registered first.
type Fake struct {
	mu       sync.Mutex
	calls    []Call
	scripts  []scripted
	Fallback Result
}

// NewFake returns a Fake whose unmatched calls exit with status 1.
func NewFake() *Fake {
	return &Fake{Fallback: Result{ExitCode: 1, Output: "unexpected call"}}
}

// On answers calls whose arguments start with prefix with res.
func (f *Fake) On(prefix string, res Result) *Fake {
	return f.OnFunc(prefix, func([]string) Result { return res })
}

// OnFunc answers calls whose arguments start with prefix by invoking fn.
func (f *Fake) OnFunc(prefix string, fn func(args []string) Result) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts = append(f.scripts, scripted{prefix: prefix, fn: fn})
	return f
}

// Run implements Runner.
func (f *Fake) Run(executable string, args []string) Result {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Executable: executable, Args: append([]string(nil), args...)})
	line := strings.Join(args, " ")
	var fn func([]string) Result
	for i := len(f.scripts) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, f.scripts[i].prefix) {
			fn = f.scripts[i].fn
			break
		}
	}
	fallback := f.Fallback
	f.mu.Unlock()

	// Called without the lock so scripted functions may block.
	if fn != nil {
		return fn(args)
	}
	return fallback
}

// Calls returns a copy of every recorded call.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns how many recorded calls start with prefix.
func (f *Fake) Count(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c.Line(), prefix) {
			n++
		}
	}
	return n
}
