package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// IdleEvicter drops loaded books that have not been read for a while.
type IdleEvicter interface {
	EvictIdle(maxIdle time.Duration) int
}

// IdleEvicters runs each evicter in order and sums what they dropped.
type IdleEvicters []IdleEvicter

func (es IdleEvicters) EvictIdle(maxIdle time.Duration) int {
	n := 0
	for _, e := range es {
		n += e.EvictIdle(maxIdle)
	}
	return n
}

// EvictIdleBooksTask closes reading views and unloads books idle for longer
// than MaxIdle.
type EvictIdleBooksTask struct {
	MaxIdle time.Duration `json:"max_idle"`
}

func (t EvictIdleBooksTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "evict_idle_books",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention:   retention(),
	}
}

func EvictIdleBooksProcessor(cache IdleEvicter) backlite.QueueProcessor[EvictIdleBooksTask] {
	return func(ctx context.Context, task EvictIdleBooksTask) error {
		if cache == nil {
			return fmt.Errorf("chapter repository not configured")
		}
		if n := cache.EvictIdle(task.MaxIdle); n > 0 {
			log.Printf("[TASK] evicted %d idle entries", n)
		}
		return nil
	}
}

func NewEvictIdleBooksQueue(cache IdleEvicter) backlite.Queue {
	return backlite.NewQueue(EvictIdleBooksProcessor(cache))
}
