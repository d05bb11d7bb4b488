package middleware_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehiclerental/internal/app/commands"
	"vehiclerental/internal/app/middleware"
	appoutbox "vehiclerental/internal/app/outbox"
	"vehiclerental/internal/app/queries"
	"vehiclerental/internal/infra/storage/memory"
)

type result struct {
	N int `json:"n"`
}

type countCommand struct {
	key   string
	valid bool
}

func (c countCommand) Key() string            { return "test.count" }
func (c countCommand) IdempotencyKey() string { return c.key }
func (c countCommand) ResultPrototype() any   { return &result{} }
func (c countCommand) Validate() error {
	if !c.valid {
		return errors.New("invalid command")
	}
	return nil
}

type busFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f busFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) { return f(ctx, cmd) }

// countingBus returns an increasing result, failing on the calls listed in failOn.
func countingBus(calls *int, failOn ...int) commands.Bus {
	return busFunc(func(context.Context, commands.Command) (any, error) {
		*calls++
		for _, n := range failOn {
			if n == *calls {
				return nil, errors.New("handler failed")
			}
		}
		return &result{N: *calls}, nil
	})
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(countingBus(&calls),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil, nil))
	ctx := context.Background()

	first, err := commands.Dispatch[countCommand, *result](ctx, bus, countCommand{key: "k1"})
	require.NoError(t, err)
	again, err := commands.Dispatch[countCommand, *result](ctx, bus, countCommand{key: "k1"})
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, calls)

	other, err := commands.Dispatch[countCommand, *result](ctx, bus, countCommand{key: "k2"})
	require.NoError(t, err)
	assert.Equal(t, 2, other.N)
}

func TestIdempotencyDoesNotRecordFailures(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(countingBus(&calls, 1),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil, nil))
	ctx := context.Background()

	_, err := bus.Dispatch(ctx, countCommand{key: "retry"})
	require.Error(t, err)
	res, err := commands.Dispatch[countCommand, *result](ctx, bus, countCommand{key: "retry"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.N)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyWithoutKeyAlwaysRuns(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(countingBus(&calls),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil, nil))
	for i := 0; i < 3; i++ {
		_, err := bus.Dispatch(context.Background(), countCommand{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}

func TestValidationStopsInvalidCommands(t *testing.T) {
	calls := 0
	bus := middleware.ChainCommands(countingBus(&calls), middleware.Validation(middleware.SelfValidator{}))

	_, err := bus.Dispatch(context.Background(), countCommand{})
	assert.EqualError(t, err, "invalid command")
	assert.Zero(t, calls)

	_, err = bus.Dispatch(context.Background(), countCommand{valid: true})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

type flushRecorder struct {
	flushes int
	err     error
}

func (f *flushRecorder) Add(context.Context, appoutbox.EventRecord) error { return nil }
func (f *flushRecorder) Flush(context.Context) error {
	f.flushes++
	return f.err
}

func TestOutboxFlushRunsAfterEveryCommand(t *testing.T) {
	calls := 0
	box := &flushRecorder{}
	bus := middleware.ChainCommands(countingBus(&calls, 2), middleware.OutboxFlush(box))

	_, err := bus.Dispatch(context.Background(), countCommand{})
	require.NoError(t, err)
	_, err = bus.Dispatch(context.Background(), countCommand{})
	require.Error(t, err)
	assert.Equal(t, 2, box.flushes)

	box.err = errors.New("broker down")
	_, err = bus.Dispatch(context.Background(), countCommand{})
	assert.ErrorIs(t, err, middleware.ErrOutboxFlush)
}

func TestChainCommandsOrder(t *testing.T) {
	var trace []string
	mark := func(name string) middleware.CommandMiddleware {
		return func(next commands.Bus) commands.Bus {
			return busFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
				trace = append(trace, name)
				return next.Dispatch(ctx, cmd)
			})
		}
	}
	calls := 0
	bus := middleware.ChainCommands(countingBus(&calls), mark("outer"), mark("inner"))
	_, err := bus.Dispatch(context.Background(), countCommand{})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, trace)
}

type typeQuery struct{ id int64 }

func (q typeQuery) Key() string { return "test.type" }
func (q typeQuery) Validate() error {
	if q.id <= 0 {
		return errors.New("id must be positive")
	}
	return nil
}

func TestQueryValidation(t *testing.T) {
	bus := queries.NewInMemoryBus()
	queries.RegisterHandler(bus, typeQuery{}.Key(), queries.HandlerFunc[typeQuery, int64](
		func(_ context.Context, q typeQuery) (int64, error) { return q.id * 2, nil }))
	qs := middleware.ChainQueries(bus, middleware.QueryValidation(middleware.SelfValidator{}))

	_, err := queries.Ask[typeQuery, int64](context.Background(), qs, typeQuery{})
	assert.EqualError(t, err, "id must be positive")
	got, err := queries.Ask[typeQuery, int64](context.Background(), qs, typeQuery{id: 21})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}
