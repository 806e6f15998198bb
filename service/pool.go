package service

import "context"

// WorkerPool bounds concurrent external-tool work across the process. Every
// composition or retrieval holds one slot for the full run of its subprocess;
// there is no mid-invocation cancellation point.
type WorkerPool struct {
	slots chan struct{}
}

func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{slots: make(chan struct{}, size)}
}

func (p *WorkerPool) Acquire(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *WorkerPool) Release() {
	<-p.slots
}
