// Package memory is an in-memory export target for local development and
// worker tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/brianschroeder/finance-tracker-sub001/internal/core"
	"github.com/brianschroeder/finance-tracker-sub001/internal/sheets"
)

type Row struct {
	Transaction core.Transaction
	Category    string
}

type Store struct {
	mu   sync.Mutex
	rows []Row
	err  error
}

var _ sheets.TransactionAppender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Fail makes every subsequent append return err. Used to exercise the
// worker's error path.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Store) AppendTransaction(_ context.Context, t core.Transaction, categoryName string) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.rows = append(s.rows, Row{Transaction: t, Category: categoryName})
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}
