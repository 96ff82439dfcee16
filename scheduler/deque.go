package scheduler

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// A deque holds the tasks forked by one worker. The owning worker pushes and
// pops at the bottom (newest first), thieves steal from the top (oldest
// first), so that thieves take the largest pending pieces of work.
type deque struct {
	_     cpu.CacheLinePad
	mu    sync.Mutex
	tasks []*task
	_     cpu.CacheLinePad
}

func (d *deque) push(t *task) {
	d.mu.Lock()
	d.tasks = append(d.tasks, t)
	d.mu.Unlock()
}

func (d *deque) pop() (t *task) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := len(d.tasks); n > 0 {
		t = d.tasks[n-1]
		d.tasks[n-1] = nil
		d.tasks = d.tasks[:n-1]
	}
	return
}

// popIf removes t from the bottom of the deque if it is still there, that is,
// if no thief has taken it in the meantime.
func (d *deque) popIf(t *task) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n := len(d.tasks); (n > 0) && (d.tasks[n-1] == t) {
		d.tasks[n-1] = nil
		d.tasks = d.tasks[:n-1]
		return true
	}
	return false
}

func (d *deque) steal() (t *task) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.tasks) > 0 {
		t = d.tasks[0]
		d.tasks[0] = nil
		d.tasks = d.tasks[1:]
	}
	return
}

