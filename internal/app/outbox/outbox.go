package outbox

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"vehiclerental/internal/domain/shared/events"
)

type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

// Claimed is a record handed to a publishing worker.
type Claimed struct {
	EventRecord
	Attempts int
}

// Store is the durable side of the outbox polled by the publishing worker.
// Claim returns nil when nothing is due.
type Store interface {
	Claim(ctx context.Context, workerID string) (*Claimed, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Buffer stages records for a unit of work and forwards them to Target on Commit.
// Units backed by stores that cannot write the outbox transactionally use it.
type Buffer struct {
	Target Outbox

	mu      sync.Mutex
	pending []EventRecord
}

func NewBuffer(target Outbox) *Buffer {
	return &Buffer{Target: target}
}

func (b *Buffer) Add(_ context.Context, record EventRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, record)
	return nil
}

// Flush is a no-op; records leave the buffer only through Commit.
func (b *Buffer) Flush(context.Context) error {
	return nil
}

func (b *Buffer) Commit(ctx context.Context) error {
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()
	if b.Target == nil {
		return nil
	}
	for _, rec := range pending {
		if err := b.Target.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (b *Buffer) Discard() {
	b.mu.Lock()
	b.pending = nil
	b.mu.Unlock()
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
