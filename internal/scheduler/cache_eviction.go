package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/zenreader/internal/tasks"
)

// Enqueuer adds background tasks.
type Enqueuer interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// CacheEvictionScheduler periodically closes idle reading views and unloads
// books that have not been read for a while. With a queue configured the eviction runs as a task,
// otherwise inline on the cron goroutine.
type CacheEvictionScheduler struct {
	schedule string
	maxIdle  time.Duration
	cache    tasks.IdleEvicter
	queue    Enqueuer

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewCacheEvictionScheduler(schedule string, maxIdle time.Duration, cache tasks.IdleEvicter, queue Enqueuer) *CacheEvictionScheduler {
	return &CacheEvictionScheduler{
		schedule: schedule,
		maxIdle:  maxIdle,
		cache:    cache,
		queue:    queue,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// Start schedules the eviction job. An empty schedule disables it.
func (s *CacheEvictionScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.schedule == "" || s.maxIdle <= 0 {
		log.Printf("[scheduler] cache eviction disabled")
		return nil
	}
	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.RunNow)
	if err != nil {
		return fmt.Errorf("failed to schedule cache eviction: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true
	log.Printf("[scheduler] cache eviction every '%s' for books idle over %v", s.schedule, s.maxIdle)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()
	return nil
}

// Stop waits for a running job and stops the scheduler.
func (s *CacheEvictionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	log.Printf("[scheduler] cache eviction stopped")
}

func (s *CacheEvictionScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the next scheduled eviction, or nil when stopped.
func (s *CacheEvictionScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// RunNow performs one eviction pass.
func (s *CacheEvictionScheduler) RunNow() {
	if s.queue != nil {
		_, err := s.queue.Add(tasks.EvictIdleBooksTask{MaxIdle: s.maxIdle}).Save()
		if err == nil {
			return
		}
		log.Printf("[scheduler] failed to queue cache eviction, running inline: %v", err)
	}
	if n := s.cache.EvictIdle(s.maxIdle); n > 0 {
		log.Printf("[scheduler] evicted %d idle entries", n)
	}
}
