package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/uow"
)

type echoCommand struct {
	Payload  string
	DedupKey string
}

func (c echoCommand) Key() string            { return "test.echo" }
func (c echoCommand) IdempotencyKey() string { return c.DedupKey }
func (c echoCommand) ResultPrototype() any   { return &echoResult{} }

type echoResult struct {
	Payload string `json:"payload"`
}

type countingHandler struct {
	calls int
}

func (h *countingHandler) Handle(_ context.Context, cmd echoCommand) (*echoResult, error) {
	h.calls++
	return &echoResult{Payload: cmd.Payload}, nil
}

type memStore struct {
	items map[string]IdempotencyRecord
}

func newMemStore() *memStore { return &memStore{items: map[string]IdempotencyRecord{}} }

func (s *memStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *memStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s.items[rec.Key] = rec
	return nil
}

type recordingUnit struct {
	uow.UnitOfWork
	commits   *int
	rollbacks *int
}

func (u recordingUnit) Commit(context.Context) error   { *u.commits++; return nil }
func (u recordingUnit) Rollback(context.Context) error { *u.rollbacks++; return nil }

type recordingFactory struct {
	unit recordingUnit
}

func (f recordingFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	return f.unit, nil
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	base := commands.NewInMemoryBus()
	handler := &countingHandler{}
	commands.RegisterHandler(base, echoCommand{}.Key(), handler)

	bus := ChainCommands(base, Idempotency(newMemStore(), nil))
	ctx := context.Background()

	first, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Payload: "hello", DedupKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, "hello", first.Payload)

	second, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Payload: "ignored", DedupKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, "hello", second.Payload, "replay returns the stored result")
	assert.Equal(t, 1, handler.calls)
}

func TestIdempotencySkipsCommandsWithoutKey(t *testing.T) {
	base := commands.NewInMemoryBus()
	handler := &countingHandler{}
	commands.RegisterHandler(base, echoCommand{}.Key(), handler)

	bus := ChainCommands(base, Idempotency(newMemStore(), nil))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Payload: "hello"})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, handler.calls)
}

func TestTransactionCommitsOnSuccessRollsBackOnError(t *testing.T) {
	base := commands.NewInMemoryBus()
	handler := &countingHandler{}
	commands.RegisterHandler(base, echoCommand{}.Key(), handler)

	var commits, rollbacks int
	factory := recordingFactory{unit: recordingUnit{commits: &commits, rollbacks: &rollbacks}}
	bus := ChainCommands(base, Transaction(factory, nil))
	ctx := context.Background()

	_, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Payload: "ok"})
	require.NoError(t, err)
	assert.Equal(t, 1, commits)
	assert.Zero(t, rollbacks)
}

func TestTransactionRollsBackOnHandlerError(t *testing.T) {
	base := commands.NewInMemoryBus()
	commands.RegisterHandler(base, failingCommand{}.Key(),
		commands.HandlerFunc[failingCommand, struct{}](func(context.Context, failingCommand) (struct{}, error) {
			return struct{}{}, errors.New("boom")
		}))

	var commits, rollbacks int
	factory := recordingFactory{unit: recordingUnit{commits: &commits, rollbacks: &rollbacks}}
	bus := ChainCommands(base, Transaction(factory, nil))

	_, err := commands.Dispatch[failingCommand, struct{}](context.Background(), bus, failingCommand{})
	assert.Error(t, err)
	assert.Zero(t, commits)
	assert.Equal(t, 1, rollbacks)
}

type failingCommand struct{}

func (failingCommand) Key() string { return "test.fail" }

func TestValidationRejectsBeforeHandler(t *testing.T) {
	base := commands.NewInMemoryBus()
	handler := &countingHandler{}
	commands.RegisterHandler(base, echoCommand{}.Key(), handler)

	wantErr := errors.New("payload required")
	bus := ChainCommands(base, Validation(validatorFunc(func(_ context.Context, message any) error {
		if cmd, ok := message.(echoCommand); ok && cmd.Payload == "" {
			return wantErr
		}
		return nil
	})))

	_, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{})
	assert.ErrorIs(t, err, wantErr)
	assert.Zero(t, handler.calls)
}

func TestAuthorizationRejectsBeforeHandler(t *testing.T) {
	base := commands.NewInMemoryBus()
	handler := &countingHandler{}
	commands.RegisterHandler(base, echoCommand{}.Key(), handler)

	wantErr := errors.New("forbidden")
	bus := ChainCommands(base, Authorization(authorizerFunc(func(context.Context, any) error {
		return wantErr
	})))

	_, err := commands.Dispatch[echoCommand, *echoResult](context.Background(), bus, echoCommand{Payload: "x"})
	assert.ErrorIs(t, err, wantErr)
	assert.Zero(t, handler.calls)
}

type validatorFunc func(ctx context.Context, message any) error

func (f validatorFunc) Validate(ctx context.Context, message any) error { return f(ctx, message) }

type authorizerFunc func(ctx context.Context, message any) error

func (f authorizerFunc) Authorize(ctx context.Context, message any) error { return f(ctx, message) }
