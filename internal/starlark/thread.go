package starlark

import (
	"sync"

	"go.starlark.net/starlark"
)

// ThreadPool manages a pool of Starlark threads so rule checks running on
// several files at once do not allocate a thread per statement.
type ThreadPool struct {
	mu      sync.Mutex
	threads []*starlark.Thread
	maxSize int
	print   func(thread, msg string)
}

// NewThreadPool creates a new thread pool with the specified maximum size.
// print receives the output of Starlark print calls; nil discards it.
func NewThreadPool(maxSize int, print func(thread, msg string)) *ThreadPool {
	if maxSize <= 0 {
		maxSize = 10 // default pool size
	}
	if print == nil {
		print = func(string, string) {}
	}
	return &ThreadPool{
		threads: make([]*starlark.Thread, 0, maxSize),
		maxSize: maxSize,
		print:   print,
	}
}

// Get retrieves a thread from the pool or creates a new one.
// The thread name is used for error reporting.
func (p *ThreadPool) Get(name string) *starlark.Thread {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.threads) > 0 {
		thread := p.threads[len(p.threads)-1]
		p.threads = p.threads[:len(p.threads)-1]
		thread.Name = name
		return thread
	}

	return &starlark.Thread{
		Name: name,
		Print: func(t *starlark.Thread, msg string) {
			p.print(t.Name, msg)
		},
	}
}

// Put returns a thread to the pool for reuse.
// If the pool is full, the thread is discarded.
func (p *ThreadPool) Put(thread *starlark.Thread) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.threads) < p.maxSize {
		thread.Name = ""
		p.threads = append(p.threads, thread)
	}
}

// Size returns the current number of threads in the pool.
func (p *ThreadPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.threads)
}
