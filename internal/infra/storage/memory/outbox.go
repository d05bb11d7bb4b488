package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "vehiclerental/internal/app/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

// OutboxStore keeps outbox records in memory for the publishing worker.
// Records are lost on restart.
type OutboxStore struct {
	mu      sync.Mutex
	order   []string
	records map[string]*outboxEntry
	wake    chan struct{}
	now     func() time.Time
}

type outboxEntry struct {
	record    appoutbox.EventRecord
	state     string
	attempts  int
	next      time.Time
	lastError string
}

func NewOutboxStore() *OutboxStore {
	return &OutboxStore{
		records: make(map[string]*outboxEntry),
		wake:    make(chan struct{}, 1),
		now:     time.Now,
	}
}

func (o *OutboxStore) Add(_ context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.records[record.ID]; ok {
		return nil
	}
	o.order = append(o.order, record.ID)
	o.records[record.ID] = &outboxEntry{record: record, state: stateNew, next: o.now()}
	return nil
}

// Flush wakes the worker without waiting for its next tick.
func (o *OutboxStore) Flush(context.Context) error {
	select {
	case o.wake <- struct{}{}:
	default:
	}
	return nil
}

// Wake is signalled by Flush.
func (o *OutboxStore) Wake() <-chan struct{} {
	return o.wake
}

func (o *OutboxStore) Claim(_ context.Context, _ string) (*appoutbox.Claimed, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, id := range o.order {
		e := o.records[id]
		if (e.state == stateNew || e.state == stateFailed) && !e.next.After(now) {
			e.state = stateClaimed
			return &appoutbox.Claimed{EventRecord: e.record, Attempts: e.attempts}, nil
		}
	}
	return nil, nil
}

func (o *OutboxStore) MarkSent(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.records[id]; ok {
		e.state = stateSent
	}
	o.compact()
	return nil
}

func (o *OutboxStore) MarkFailed(_ context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.records[id]; ok {
		e.state = stateFailed
		e.attempts++
		e.next = next
		e.lastError = errMsg
	}
	return nil
}

// Pending counts records not yet sent.
func (o *OutboxStore) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.records {
		if e.state != stateSent {
			n++
		}
	}
	return n
}

// compact drops sent records; callers hold o.mu.
func (o *OutboxStore) compact() {
	kept := o.order[:0]
	for _, id := range o.order {
		if o.records[id].state == stateSent {
			delete(o.records, id)
			continue
		}
		kept = append(kept, id)
	}
	o.order = kept
}

var (
	_ appoutbox.Outbox = (*OutboxStore)(nil)
	_ appoutbox.Store  = (*OutboxStore)(nil)
)
