package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gradfinder.dev/gradfinder/internal/llm"
	"gradfinder.dev/gradfinder/internal/store"
)

// fakeCompleter returns a canned reply (or error) and records every call.
type fakeCompleter struct {
	mu         sync.Mutex
	reply      string
	err        error
	configured bool
	calls      [][]llm.Message
}

func newFakeCompleter(reply string) *fakeCompleter {
	return &fakeCompleter{reply: reply, configured: true}
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) Configured() bool { return f.configured }

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// memoryStore is an in-memory ProgramStore. failInsertFor makes
// CreateProgram fail for programs with that name.
type memoryStore struct {
	mu            sync.Mutex
	programs      map[string]*store.Program
	seq           int
	failInsertFor string
	failGet       error
	failUpdate    error
	inserts       int
	updates       int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{programs: map[string]*store.Program{}}
}

func (m *memoryStore) CreateProgram(ctx context.Context, p *store.Program) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsertFor != "" && p.Name == m.failInsertFor {
		return errors.New("insert rejected")
	}
	m.seq++
	m.inserts++
	p.ID = fmt.Sprintf("prog-%d", m.seq)
	p.CreatedAt = time.Unix(int64(m.seq), 0).UTC()
	cp := *p
	m.programs[p.ID] = &cp
	return nil
}

func (m *memoryStore) GetProgramByID(ctx context.Context, id string) (*store.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	p, ok := m.programs[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memoryStore) ListPrograms(ctx context.Context, limit, offset int) ([]store.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]store.Program, 0, len(m.programs))
	for _, p := range m.programs {
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return []store.Program{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memoryStore) UpdateProgramSummary(ctx context.Context, id, summary string) (*store.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if m.failUpdate != nil {
		return nil, m.failUpdate
	}
	p, ok := m.programs[id]
	if !ok {
		return nil, store.ErrProgramNotFound
	}
	s := summary
	p.AISummary = &s
	cp := *p
	return &cp, nil
}

func (m *memoryStore) Close() error { return nil }
