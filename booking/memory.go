package booking

import (
	"context"
	"sort"
	"sync"

	"medibook/models"
)

// MemoryStore is an in-process implementation of the three booking stores,
// used by tests and local development without MongoDB. A per-provider
// mutex serializes slot reservation the way the Mongo store's guarded
// update does.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]models.User
	providers    map[string]models.Provider
	appointments map[string]models.Appointment
	provLocks    map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]models.User),
		providers:    make(map[string]models.Provider),
		appointments: make(map[string]models.Appointment),
		provLocks:    make(map[string]*sync.Mutex),
	}
}

func providerKey(kind models.ProviderKind, id string) string {
	return string(kind) + "/" + id
}

func (m *MemoryStore) PutUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.UserID] = u
}

func (m *MemoryStore) PutProvider(p models.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[providerKey(p.Kind, p.ProviderID)] = p
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetProvider(_ context.Context, kind models.ProviderKind, id string) (*models.Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[providerKey(kind, id)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	cp.SlotsBooked = copySlots(p.SlotsBooked)
	return &cp, nil
}

func (m *MemoryStore) lockFor(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.provLocks[key]
	if !ok {
		l = &sync.Mutex{}
		m.provLocks[key] = l
	}
	return l
}

// ReserveSlot is the atomic check-and-append: under the provider's lock it
// re-checks availability and slot freedom, then appends the time label.
func (m *MemoryStore) ReserveSlot(_ context.Context, kind models.ProviderKind, id, dateKey, timeLabel string) error {
	key := providerKey(kind, id)
	l := m.lockFor(key)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.providers[key]
	if !ok {
		return ErrNotFound
	}
	if !p.Available {
		return ErrProviderUnavailable
	}
	for _, taken := range p.SlotsBooked[dateKey] {
		if taken == timeLabel {
			return ErrSlotTaken
		}
	}
	if p.SlotsBooked == nil {
		p.SlotsBooked = make(map[string][]string)
	} else {
		p.SlotsBooked = copySlots(p.SlotsBooked)
	}
	p.SlotsBooked[dateKey] = append(p.SlotsBooked[dateKey], timeLabel)
	m.providers[key] = p
	return nil
}

func (m *MemoryStore) ToggleAvailable(_ context.Context, kind models.ProviderKind, id string) (*models.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := providerKey(kind, id)
	p, ok := m.providers[key]
	if !ok {
		return nil, ErrNotFound
	}
	p.Available = !p.Available
	m.providers[key] = p
	cp := p
	return &cp, nil
}

func (m *MemoryStore) InsertAppointment(_ context.Context, a *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments[a.AppointmentID] = *a
	return nil
}

func (m *MemoryStore) GetAppointment(_ context.Context, id string) (*models.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := a
	return &cp, nil
}

func (m *MemoryStore) SetFlags(_ context.Context, id string, expect, set Flags) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if flagsOf(&a) != expect {
		return nil, errConflict
	}
	applyFlags(&a, set)
	m.appointments[id] = a
	cp := a
	return &cp, nil
}

func (m *MemoryStore) ListByRequester(_ context.Context, userID string) ([]models.Appointment, error) {
	return m.list(func(a models.Appointment) bool { return a.UserID == userID })
}

func (m *MemoryStore) ListByCounterparty(_ context.Context, c models.Counterparty) ([]models.Appointment, error) {
	return m.list(func(a models.Appointment) bool {
		cp, err := a.Counterparty()
		return err == nil && cp == c
	})
}

func (m *MemoryStore) ListAllAppointments(_ context.Context) ([]models.Appointment, error) {
	return m.list(func(models.Appointment) bool { return true })
}

func (m *MemoryStore) list(keep func(models.Appointment) bool) ([]models.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Appointment
	for _, a := range m.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func copySlots(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}
