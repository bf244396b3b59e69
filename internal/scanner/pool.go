package scanner

import (
	"context"
	"sync"
)

// scanJob is one file for the worker pool. index is the file's position in
// discovery order and selects the result slot.
type scanJob struct {
	index int
	path  string
}

// workerPool runs handle on a fixed number of goroutines.
type workerPool struct {
	jobQueue chan scanJob
	wg       sync.WaitGroup
}

func newWorkerPool(workerCount int, handle func(scanJob)) *workerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &workerPool{
		jobQueue: make(chan scanJob, workerCount*2),
	}
	p.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer p.wg.Done()
			for job := range p.jobQueue {
				handle(job)
			}
		}()
	}
	return p
}

// submit queues a job, giving up when ctx is done.
func (p *workerPool) submit(ctx context.Context, job scanJob) bool {
	select {
	case p.jobQueue <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

// wait closes the queue and blocks until every worker has drained it.
func (p *workerPool) wait() {
	close(p.jobQueue)
	p.wg.Wait()
}
