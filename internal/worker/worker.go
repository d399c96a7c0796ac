package worker

import "sync"

// Task 是交給 pool 執行的工作單位。
type Task func()

// Pool 定義簡單的 worker pool，用於背景重算地圖快取等工作。
type Pool interface {
	Submit(Task)
	Stop()
}

// NewPool 建立含 n 個 worker 的 pool，n<=0 時視為 1。
func NewPool(n int) Pool {
	if n <= 0 {
		n = 1
	}
	p := &pool{jobs: make(chan Task)}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				if job != nil {
					job()
				}
			}
		}()
	}
	return p
}

type pool struct {
	jobs chan Task
	wg   sync.WaitGroup
}

func (p *pool) Submit(t Task) {
	p.jobs <- t
}

// Stop 關閉佇列並等待所有 worker 結束。
func (p *pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}
