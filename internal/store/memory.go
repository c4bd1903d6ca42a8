package store

import (
	"sync"
	"time"

	"github.com/nhattran/eduai/internal/model"
)

// Memory is an in-memory Store. It backs tests and serves as the degraded
// fallback when the durable database cannot be opened: the session keeps
// working, state just does not survive a restart.
type Memory struct {
	mu       sync.Mutex
	values   map[string]string
	sessions map[string]time.Time

	subMu   sync.Mutex
	subs    map[int]func(string)
	nextSub int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string]string),
		sessions: make(map[string]time.Time),
		subs:     make(map[int]func(string)),
	}
}

func (m *Memory) GetActiveTest() (*model.TestData, error) {
	m.mu.Lock()
	value, ok := m.values[KeyActiveTest]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeTest(value)
}

func (m *Memory) SetActiveTest(t *model.TestData) error {
	if t == nil {
		m.mu.Lock()
		delete(m.values, KeyActiveTest)
		m.mu.Unlock()
		m.notify(KeyActiveTest)
		return nil
	}
	value, err := encodeTest(t)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.values[KeyActiveTest] = value
	m.mu.Unlock()
	m.notify(KeyActiveTest)
	return nil
}

func (m *Memory) GetResults() ([]model.StudentResult, error) {
	m.mu.Lock()
	value, ok := m.values[KeyResults]
	m.mu.Unlock()
	if !ok {
		return []model.StudentResult{}, nil
	}
	return decodeResults(value)
}

func (m *Memory) AppendResult(r model.StudentResult) error {
	m.mu.Lock()
	defer func() {
		m.mu.Unlock()
		m.notify(KeyResults)
	}()
	var results []model.StudentResult
	if value, ok := m.values[KeyResults]; ok {
		var err error
		if results, err = decodeResults(value); err != nil {
			return err
		}
	}
	results = append(results, r)
	value, err := encodeResults(results)
	if err != nil {
		return err
	}
	m.values[KeyResults] = value
	return nil
}

// Subscribe registers a change callback. The memory store has no sibling
// handles, so callbacks fire for every write made through this store.
func (m *Memory) Subscribe(fn func(key string)) (cancel func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Memory) notify(key string) {
	m.subMu.Lock()
	fns := make([]func(string), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
}

func (m *Memory) CreateTeacherSession() (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.sessions[token] = time.Now().Add(teacherSessionTTL)
	m.mu.Unlock()
	return token, nil
}

func (m *Memory) ValidTeacherSession(token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiresAt, ok := m.sessions[token]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiresAt) {
		delete(m.sessions, token)
		return false, nil
	}
	return true, nil
}

func (m *Memory) DeleteTeacherSession(token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
