package services

import (
	"context"
	"errors"
	"sync"

	"github.com/nexcharge/apiserver/internal/store"
	"github.com/nexcharge/apiserver/types"
)

// memUsers enforces email uniqueness inside Create, as the unique index does.
type memUsers struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]types.User

	// skipLookup makes GetByEmail miss so concurrent registrations race
	// into Create.
	skipLookup bool
	getErr     error
	createErr  error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[int]types.User)}
}

func (m *memUsers) GetByID(_ context.Context, id int) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	if m.getErr != nil {
		return types.User{}, m.getErr
	}
	if m.skipLookup {
		return types.User{}, store.ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, user types.User) (types.User, error) {
	if m.createErr != nil {
		return types.User{}, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	m.nextID++
	user.ID = m.nextID
	m.byID[user.ID] = user
	return user, nil
}

func (m *memUsers) count(email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.byID {
		if u.Email == email {
			n++
		}
	}
	return n
}

type memChargers struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]types.Charger
	err    error
}

func newMemChargers() *memChargers {
	return &memChargers{byID: make(map[int]types.Charger)}
}

func (m *memChargers) List(_ context.Context, filter types.ChargerFilter) ([]types.Charger, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Charger, 0, len(m.byID))
	for id := 1; id <= m.nextID; id++ {
		c, ok := m.byID[id]
		if !ok {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memChargers) Get(_ context.Context, id int) (types.Charger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return types.Charger{}, store.ErrNotFound
	}
	return c, nil
}

func (m *memChargers) Create(_ context.Context, c types.Charger) (types.Charger, error) {
	if m.err != nil {
		return types.Charger{}, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	m.byID[c.ID] = c
	return c, nil
}

func (m *memChargers) Update(_ context.Context, u types.ChargerUpdate) (types.Charger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[u.ID]
	if !ok {
		return types.Charger{}, store.ErrNotFound
	}
	c.Name, c.Location, c.Status = u.Name, u.Location, u.Status
	if u.ConnectorType != nil {
		c.ConnectorType = *u.ConnectorType
	}
	if u.PowerOutput != nil {
		c.PowerOutput = *u.PowerOutput
	}
	m.byID[c.ID] = c
	return c, nil
}

func (m *memChargers) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []types.ChargerEvent
	err    error
}

func (r *recordedEvents) PublishChargerEvent(_ context.Context, e types.ChargerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

var errBoom = errors.New("boom")
