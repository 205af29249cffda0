package vm

import "github.com/deepnoodle-ai/xq/bytecode"

// environment owns the program and the suspended forks awaiting
// exploration. Forks are resumed most recent first.
type environment struct {
	program *bytecode.Program
	forks   []*fork
	nextID  int
}

func newEnvironment(program *bytecode.Program) *environment {
	env := &environment{program: program}
	env.forks = append(env.forks, newFork(env.allocID(), program.Entry()))
	return env
}

func (e *environment) allocID() int {
	id := e.nextID
	e.nextID++
	return id
}

// pushFork suspends a copy of f that will resume at pc.
func (e *environment) pushFork(f *fork, pc bytecode.Address) *fork {
	c := f.clone(e.allocID(), pc)
	e.forks = append(e.forks, c)
	return c
}

func (e *environment) popFork() (*fork, bool) {
	n := len(e.forks)
	if n == 0 {
		return nil, false
	}
	f := e.forks[n-1]
	e.forks[n-1] = nil
	e.forks = e.forks[:n-1]
	return f, true
}

func (e *environment) pending() int {
	return len(e.forks)
}
