// Package memstore provides the transaction and row-lock primitives behind the
// in-process repositories used by STORAGE_DRIVER=memory and by engine tests.
//
// A transaction is a journal attached to the context: repositories register
// undo steps as they write, and row locks taken inside the transaction are
// held until it ends, mirroring SELECT ... FOR UPDATE.
package memstore

import (
	"context"
	"sort"
	"sync"
)

type txKey struct{}

type journal struct {
	undo    []func()
	release []func()
	held    map[*LockTable]map[string]struct{}
}

// Transactor implements database.Transactor for in-memory repositories
type Transactor struct{}

func NewTransactor() *Transactor {
	return &Transactor{}
}

// WithinTransaction runs fn with a journal. On error every registered undo
// step runs in reverse order before the locks are released.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*journal); ok {
		return fn(ctx)
	}

	j := &journal{held: make(map[*LockTable]map[string]struct{})}
	defer func() {
		for i := len(j.release) - 1; i >= 0; i-- {
			j.release[i]()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		return err
	}
	return nil
}

// OnRollback registers an undo step. Outside a transaction it is a no-op.
func OnRollback(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(txKey{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}

// InTransaction reports whether ctx carries a journal
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*journal)
	return ok
}

// LockTable hands out one mutex per key. Keys are locked in sorted order so
// two overlapping lock sets can never deadlock.
type LockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLockTable() *LockTable {
	return &LockTable{locks: make(map[string]*sync.Mutex)}
}

func (lt *LockTable) mutex(key string) *sync.Mutex {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	m, ok := lt.locks[key]
	if !ok {
		m = &sync.Mutex{}
		lt.locks[key] = m
	}
	return m
}

// Acquire locks keys in canonical order. Inside a transaction the locks are
// owned by the journal and released when it ends, keys already held by the
// same transaction are skipped, and the returned func is a no-op. Outside a
// transaction the caller must call the returned func.
func (lt *LockTable) Acquire(ctx context.Context, keys []string) func() {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	j, inTx := ctx.Value(txKey{}).(*journal)
	var owned map[string]struct{}
	if inTx {
		owned = j.held[lt]
		if owned == nil {
			owned = make(map[string]struct{})
			j.held[lt] = owned
		}
	}

	var acquired []*sync.Mutex
	for _, k := range sorted {
		if inTx {
			if _, already := owned[k]; already {
				continue
			}
			owned[k] = struct{}{}
		}
		m := lt.mutex(k)
		m.Lock()
		acquired = append(acquired, m)
	}

	unlock := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}

	if inTx {
		j.release = append(j.release, unlock)
		return func() {}
	}
	return unlock
}
