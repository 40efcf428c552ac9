/*
Position bookkeeping. The engine tracks at most one active position per
account; replacement is all-or-nothing and only happens after a confirmed
execution.
*/

package store

import (
	"errors"
	"sync"
	"time"

	"github.com/crestfi/yra/internal/types"
)

var ErrNoPosition = errors.New("no active position for account")

// PositionStore tracks the active position per account. Implementations must
// be safe for concurrent use.
type PositionStore interface {
	// Get returns a copy of the account's active position.
	Get(account types.AccountID) (types.Position, error)

	// Replace atomically installs the new position for the account,
	// discarding any previous one.
	Replace(account types.AccountID, position types.Position) error

	// Clear removes the account's position, e.g. after a full exit.
	Clear(account types.AccountID) error

	// Accounts returns the accounts that currently hold a position.
	Accounts() []types.AccountID
}

// MemoryPositionStore is the in-process PositionStore used by the agent and
// in tests. Values are copied on the way in and out so callers can never
// mutate stored state.
type MemoryPositionStore struct {
	mu        sync.RWMutex
	positions map[types.AccountID]types.Position
}

func NewMemoryPositionStore() *MemoryPositionStore {
	return &MemoryPositionStore{
		positions: make(map[types.AccountID]types.Position),
	}
}

func (s *MemoryPositionStore) Get(account types.AccountID) (types.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	position, ok := s.positions[account]
	if !ok {
		return types.Position{}, ErrNoPosition
	}
	return position, nil
}

func (s *MemoryPositionStore) Replace(account types.AccountID, position types.Position) error {
	if account == "" {
		return errors.New("account ID cannot be empty")
	}
	if position.EntryDate.IsZero() {
		position.EntryDate = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[account] = position
	return nil
}

func (s *MemoryPositionStore) Clear(account types.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.positions[account]; !ok {
		return ErrNoPosition
	}
	delete(s.positions, account)
	return nil
}

func (s *MemoryPositionStore) Accounts() []types.AccountID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]types.AccountID, 0, len(s.positions))
	for account := range s.positions {
		accounts = append(accounts, account)
	}
	return accounts
}
