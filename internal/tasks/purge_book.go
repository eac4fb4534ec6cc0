package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// BookDataPurger deletes a removed book's content, chapter index and
// bookmarks.
type BookDataPurger interface {
	PurgeBookData(bookID string) error
}

type PurgeBookTask struct {
	BookID string `json:"book_id"`
}

func (t PurgeBookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "purge_book",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention:   retention(),
	}
}

func PurgeBookProcessor(store BookDataPurger) backlite.QueueProcessor[PurgeBookTask] {
	return func(ctx context.Context, task PurgeBookTask) error {
		if store == nil {
			return fmt.Errorf("book store not configured")
		}
		if task.BookID == "" {
			return fmt.Errorf("purge book: empty book id")
		}
		if err := store.PurgeBookData(task.BookID); err != nil {
			return fmt.Errorf("purge book %s: %w", task.BookID, err)
		}
		log.Printf("[TASK] purged data for book %s", task.BookID)
		return nil
	}
}

func NewPurgeBookQueue(store BookDataPurger) backlite.Queue {
	return backlite.NewQueue(PurgeBookProcessor(store))
}

// QueuePurger hands book purges to the queue.
type QueuePurger struct {
	client *Client
}

func NewQueuePurger(client *Client) *QueuePurger {
	return &QueuePurger{client: client}
}

func (p *QueuePurger) PurgeBook(bookID string) error {
	if _, err := p.client.Add(PurgeBookTask{BookID: bookID}).Save(); err != nil {
		return fmt.Errorf("failed to queue purge for %s: %w", bookID, err)
	}
	return nil
}
