package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task одна независимая единица работы
type Task func(ctx context.Context) error

// Pool выполняет независимые задачи с ограниченным числом горутин
type Pool struct {
	size   int
	logger *zap.Logger
}

// NewPool создает пул воркеров
func NewPool(size int, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = 1
	}

	return &Pool{
		size:   size,
		logger: logger,
	}
}

// Size возвращает число горутин пула
func (p *Pool) Size() int {
	return p.size
}

// Run выполняет все задачи и ждет их завершения. Ошибка задачи не прерывает
// остальные, возвращается первая из них. При отмене контекста нераспределенные
// задачи не запускаются
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	workers := p.size
	if workers > len(tasks) {
		workers = len(tasks)
	}

	taskChan := make(chan Task)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for task := range taskChan {
				if err := task(ctx); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()

					p.logger.Warn("Pool task failed", zap.Error(err))
				}
			}
		}()
	}

	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
		case taskChan <- task:
		}
	}

	close(taskChan)
	wg.Wait()

	if firstErr == nil {
		firstErr = ctx.Err()
	}

	return firstErr
}
