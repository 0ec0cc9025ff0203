// perror.go ports the teacher's channel-based error collector
// (util/perror.go) for use by CompileProgram's per-function worker
// goroutines: the same listen/stop channel pair and mutex-guarded
// buffer, renamed from vslc's parallel syntax-tree optimisation use
// case to rax's parallel per-function compilation use case.
package driver

import "sync"

// perror collects errors reported by parallel compilation workers.
type perror struct {
	listen chan error
	stop   chan error
	mu     sync.Mutex
	errors []error
}

const defaultBufferSize = 16

// newPerror returns a running perror listener with n pre-allocated
// slots for buffered errors.
func newPerror(n int) *perror {
	if n < 1 {
		n = defaultBufferSize
	}
	pe := &perror{
		listen: make(chan error),
		stop:   make(chan error),
		errors: make([]error, 0, n),
	}
	go pe.run()
	return pe
}

func (pe *perror) run() {
	defer close(pe.listen)
	for {
		select {
		case err := <-pe.listen:
			pe.mu.Lock()
			pe.errors = append(pe.errors, err)
			pe.mu.Unlock()
		case <-pe.stop:
			return
		}
	}
}

// Append sends err to the listener. A nil error is ignored.
func (pe *perror) Append(err error) {
	if err != nil {
		pe.listen <- err
	}
}

// Len returns the number of buffered errors.
func (pe *perror) Len() int {
	pe.mu.Lock()
	defer pe.mu.Unlock()
	return len(pe.errors)
}

// Errors returns every buffered error, in report order.
func (pe *perror) Errors() []error {
	pe.mu.Lock()
	defer pe.mu.Unlock()
	out := make([]error, len(pe.errors))
	copy(out, pe.errors)
	return out
}

// Stop sends the stop signal to the error listener. Must be called
// exactly once, after every worker has finished reporting.
func (pe *perror) Stop() {
	defer close(pe.stop)
	pe.stop <- nil
}
