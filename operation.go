package protect

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result is a strict success-xor-failure tagged value: exactly one of
// Value or Err is meaningful, decided by Ok.
type Result[T any] struct {
	Value T
	Err   *Failure
	Ok    bool
}

// Success builds an Ok Result.
func Success[T any](v T) Result[T] { return Result[T]{Value: v, Ok: true} }

// Failed builds a failed Result.
func Failed[T any](err *Failure) Result[T] { return Result[T]{Err: err} }

// Unwrap returns the value, or panics with the Failure if the Result
// failed — a convenience for callers who have already checked Ok, or
// tests that expect success.
func (r Result[T]) Unwrap() T {
	if !r.Ok {
		panic(r.Err)
	}
	return r.Value
}

// Operation builds up the context for a client action — one or more
// encrypt/decrypt calls — before Execute runs it: an optional lock
// context binding, and an audit metadata map attached to the client's
// structured logs. This generalizes the teacher package's functional
// options into a per-call builder, since lock-context binding and audit
// metadata are per-invocation rather than per-client.
type Operation[T any] struct {
	client  *EncryptionClient
	id      string
	lock    *LockContext
	audit   map[string]any
	run     func(ctx context.Context, op *Operation[T]) (T, *Failure)
}

// newOperation builds an Operation with a fresh audit ID, wrapping run.
func newOperation[T any](client *EncryptionClient, run func(context.Context, *Operation[T]) (T, *Failure)) *Operation[T] {
	return &Operation[T]{client: client, id: uuid.NewString(), run: run}
}

// WithLockContext attaches a bound LockContext to the operation, scoping
// key derivation to that identity.
func (op *Operation[T]) WithLockContext(lc *LockContext) *Operation[T] {
	op.lock = lc
	return op
}

// Audit merges key/value pairs into the operation's audit metadata,
// logged alongside the operation's outcome.
func (op *Operation[T]) Audit(kv map[string]any) *Operation[T] {
	if op.audit == nil {
		op.audit = make(map[string]any, len(kv))
	}
	for k, v := range kv {
		op.audit[k] = v
	}
	return op
}

// Execute runs the operation against ctx, logging its outcome and
// duration and returning a Result rather than an (T, error) pair so
// callers cannot accidentally read Value on failure.
func (op *Operation[T]) Execute(ctx context.Context) Result[T] {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Failed[T](newFailure(KindCanceled, "context canceled before execution", err))
	}

	value, failure := op.run(ctx, op)
	if failure != nil && ctx.Err() != nil {
		failure = newFailure(KindCanceled, "context canceled during execution", ctx.Err())
	}
	duration := time.Since(start)

	fields := []zap.Field{
		zap.String("operation_id", op.id),
		zap.Duration("duration", duration),
	}
	for k, v := range op.audit {
		fields = append(fields, zap.Any(k, v))
	}

	logger := op.client.logger
	if failure != nil {
		logger.Warn("operation failed", append(fields, zap.String("kind", failure.Kind.String()), zap.Error(failure))...)
		op.client.metrics.observeOperation("failure", duration)
		return Failed[T](failure)
	}

	logger.Debug("operation succeeded", fields...)
	op.client.metrics.observeOperation("success", duration)
	return Success(value)
}
