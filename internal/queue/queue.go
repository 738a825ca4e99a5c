// Package queue implements a time- and priority-ordered transaction queue.
// The id map is the source of truth for transaction status; the heap may
// hold stale entries for already-terminal transactions, which are filtered
// out lazily on pop.
package queue

import (
	"container/heap"
	"errors"
	"sync"
	"time"

	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/models"
)

// ErrDuplicateTransaction is returned by Add when the id is already known.
var ErrDuplicateTransaction = errors.New("transaction id already queued")

// entry is one heap element. Ordering: earlier scheduledAt first, then
// higher priority, then insertion sequence (FIFO among ties).
type entry struct {
	scheduledAt time.Time
	priority    int
	seq         uint64
	txID        string
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if !h[i].scheduledAt.Equal(h[j].scheduledAt) {
		return h[i].scheduledAt.Before(h[j].scheduledAt)
	}
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(*entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Queue holds pending transactions until their scheduled time arrives.
// The heap and the id map are mutated as one logical unit under the mutex.
type Queue struct {
	mu    sync.Mutex
	heap  entryHeap
	items map[string]*models.Transaction
	seq   uint64
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{items: make(map[string]*models.Transaction)}
}

func (q *Queue) push(tx *models.Transaction) {
	q.seq++
	heap.Push(&q.heap, &entry{
		scheduledAt: tx.ScheduledAt,
		priority:    tx.Priority,
		seq:         q.seq,
		txID:        tx.ID,
	})
}

// Add enqueues a transaction. Re-adding a known id is a hard error reported
// to the caller, not swallowed.
func (q *Queue) Add(tx *models.Transaction) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.items[tx.ID]; exists {
		return ErrDuplicateTransaction
	}
	q.items[tx.ID] = tx
	q.push(tx)
	return nil
}

// Cancel marks a pending transaction cancelled. Returns false for unknown
// ids and for transactions already processed or cancelled; their status is
// left untouched. The heap entry stays and is filtered out on pop.
func (q *Queue) Cancel(id, reason string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	tx, ok := q.items[id]
	if !ok {
		return false
	}
	if tx.Status == models.TxProcessed || tx.Status == models.TxCancelled {
		return false
	}
	tx.Cancel(reason)
	return true
}

// PopReady returns the next pending transaction whose scheduled time is at
// or before now, or nil if none is ready. Stale heap entries for terminal
// transactions are discarded along the way.
func (q *Queue) PopReady(now time.Time) *models.Transaction {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.heap.Len() > 0 {
		top := q.heap[0]
		if top.scheduledAt.After(now) {
			return nil
		}
		heap.Pop(&q.heap)
		tx, ok := q.items[top.txID]
		if !ok || tx.Status != models.TxPending {
			continue
		}
		return tx
	}
	return nil
}

// Requeue pushes a fresh heap entry for a transaction that is already in
// the id map, typically for a retry. A positive delay reschedules the
// transaction to now+delay; zero keeps its scheduled time. No-op unless the
// transaction is still pending. The fresh insertion sequence means a retried
// transaction does not outrank equal-priority transactions added earlier.
func (q *Queue) Requeue(tx *models.Transaction, delay time.Duration, now time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if tx.Status != models.TxPending {
		return
	}
	if delay > 0 {
		tx.ScheduledAt = now.Add(delay)
	}
	q.push(tx)
}

// Len counts transactions currently pending, not heap entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, tx := range q.items {
		if tx.Status == models.TxPending {
			n++
		}
	}
	return n
}

// ListPending returns the ids of all pending transactions in no particular
// order.
func (q *Queue) ListPending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := make([]string, 0, len(q.items))
	for id, tx := range q.items {
		if tx.Status == models.TxPending {
			ids = append(ids, id)
		}
	}
	return ids
}

// Get looks up a transaction by id.
func (q *Queue) Get(id string) (*models.Transaction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	tx, ok := q.items[id]
	return tx, ok
}
