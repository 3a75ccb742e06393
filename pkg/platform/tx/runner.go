package tx

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	dErrors "bondline/pkg/domain-errors"
)

// Runner serializes mutations per key and gives them all-or-nothing
// semantics. fn receives a context that carries the open transaction; stores
// must use that context for every read and write.
//
// A call made with a context that already carries an open transaction joins
// it instead of blocking, so a reentrant call from inside fn observes the
// writes fn has made so far and commits or rolls back together with them.
type Runner interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// numShards bounds lock memory; keys hash onto shards, so unrelated keys can
// occasionally contend.
const numShards = 128

// defaultTimeout caps how long a transaction may wait for and hold its shard.
const defaultTimeout = 5 * time.Second

// ShardedRunner is the in-process Runner. With a *sql.DB it also wraps fn in
// a database transaction; without one, stores rely on the undo journal.
type ShardedRunner struct {
	shards  [numShards]chan struct{}
	db      *sql.DB
	timeout time.Duration
}

type Option func(*ShardedRunner)

// WithTimeout overrides the default transaction timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *ShardedRunner) {
		r.timeout = d
	}
}

// WithDB makes every top-level transaction a SQL transaction on db.
func WithDB(db *sql.DB) Option {
	return func(r *ShardedRunner) {
		r.db = db
	}
}

func NewRunner(opts ...Option) *ShardedRunner {
	r := &ShardedRunner{timeout: defaultTimeout}
	for i := range r.shards {
		r.shards[i] = make(chan struct{}, 1)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ShardedRunner) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	shard := shardFor(key)

	if sc := scopeFrom(ctx); sc != nil {
		if sc.holds(shard) {
			return fn(ctx)
		}
		if err := r.acquire(ctx, shard); err != nil {
			return err
		}
		sc.shards[shard] = struct{}{}
		defer func() {
			delete(sc.shards, shard)
			r.release(shard)
		}()
		return fn(ctx)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if err := r.acquire(ctx, shard); err != nil {
		return err
	}
	defer r.release(shard)

	sc := &scope{shards: map[int]struct{}{shard: {}}}
	ctx = context.WithValue(ctx, scopeKey{}, sc)

	var sqlTx *sql.Tx
	if r.db != nil {
		var err error
		sqlTx, err = r.db.BeginTx(ctx, nil)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "begin transaction")
		}
		ctx = WithTx(ctx, sqlTx)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		sc.rollback()
		if sqlTx != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(ctx); err != nil {
		return err
	}
	if sqlTx != nil {
		if err := sqlTx.Commit(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "commit transaction")
		}
	}
	committed = true
	return nil
}

func (r *ShardedRunner) acquire(ctx context.Context, shard int) error {
	select {
	case r.shards[shard] <- struct{}{}:
		return nil
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, fmt.Sprintf("transaction aborted waiting for shard %d", shard))
	}
}

func (r *ShardedRunner) release(shard int) {
	<-r.shards[shard]
}

func shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % numShards)
}

// scope is the open transaction carried by the context. It belongs to the
// goroutine that opened it.
type scope struct {
	shards map[int]struct{}
	undo   []func()
}

type scopeKey struct{}

func scopeFrom(ctx context.Context) *scope {
	sc, _ := ctx.Value(scopeKey{}).(*scope)
	return sc
}

func (sc *scope) holds(shard int) bool {
	_, ok := sc.shards[shard]
	return ok
}

func (sc *scope) rollback() {
	for i := len(sc.undo) - 1; i >= 0; i-- {
		sc.undo[i]()
	}
	sc.undo = nil
}

// OnRollback registers an undo action for the transaction carried by ctx.
// Outside a transaction it is a no-op.
func OnRollback(ctx context.Context, undo func()) {
	if sc := scopeFrom(ctx); sc != nil {
		sc.undo = append(sc.undo, undo)
	}
}

// InTx reports whether ctx carries an open transaction.
func InTx(ctx context.Context) bool {
	return scopeFrom(ctx) != nil
}
