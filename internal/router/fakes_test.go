package router

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"wastebin-backend/internal/apperr"
	"wastebin-backend/internal/identity"
	"wastebin-backend/internal/models"
)

// memStore is an in-memory table store with the same error classification
// as the Postgres store.
type memStore struct {
	mu           sync.Mutex
	users        map[string]models.User
	bins         map[string]models.Bin
	schedules    map[string]models.PickupSchedule
	transactions map[string]models.Transaction
	pingErr      error
	writes       int
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[string]models.User{},
		bins:         map[string]models.Bin{},
		schedules:    map[string]models.PickupSchedule{},
		transactions: map[string]models.Transaction{},
	}
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperr.Conflict("User already exists")
		}
	}
	m.users[u.ID] = *u
	m.writes++
	return nil
}

func (m *memStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return &u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (m *memStore) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetUserByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memStore) UserRole(ctx context.Context, id string) (string, error) {
	u, err := m.GetUser(ctx, id)
	if err != nil {
		return "", err
	}
	return models.NormalizeRole(u.Role), nil
}

func (m *memStore) ListUsers(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *memStore) SearchUsers(ctx context.Context, pattern string) ([]models.User, error) {
	all, _ := m.ListUsers(ctx)
	out := []models.User{}
	for _, u := range all {
		if strings.Contains(strings.ToLower(u.Email), strings.ToLower(pattern)) {
			out = append(out, u)
		}
	}
	return out, nil
}

// DeleteUser applies nothing unless beforeCommit succeeds. A committed
// delete clears the user's bin assignments like ON DELETE SET NULL.
func (m *memStore) DeleteUser(ctx context.Context, id string, beforeCommit func(context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return apperr.NotFound("User not found")
	}
	if beforeCommit != nil {
		if err := beforeCommit(ctx); err != nil {
			return err
		}
	}
	delete(m.users, id)
	for binID, b := range m.bins {
		if b.AssignedUserID != nil && *b.AssignedUserID == id {
			b.AssignedUserID = nil
			m.bins[binID] = b
		}
	}
	m.writes++
	return nil
}

func (m *memStore) GetBin(_ context.Context, binID string) (*models.Bin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bins[binID]
	if !ok {
		return nil, apperr.NotFound("Bin not found")
	}
	return &b, nil
}

func (m *memStore) filterBins(keep func(models.Bin) bool) []models.Bin {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Bin{}
	for _, b := range m.bins {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BinID < out[j].BinID })
	return out
}

func (m *memStore) ListBins(context.Context) ([]models.Bin, error) {
	return m.filterBins(func(models.Bin) bool { return true }), nil
}

func (m *memStore) ListBinsAssignedTo(_ context.Context, userID string) ([]models.Bin, error) {
	return m.filterBins(func(b models.Bin) bool { return b.OwnerID() == userID }), nil
}

func (m *memStore) CreateBin(_ context.Context, b *models.Bin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bins[b.BinID]; ok {
		return apperr.Conflict("Bin already exists")
	}
	m.bins[b.BinID] = *b
	m.writes++
	return nil
}

func (m *memStore) UpdateBinDetails(_ context.Context, binID string, location, qrURL *string) (*models.Bin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bins[binID]
	if !ok {
		return nil, apperr.NotFound("Bin not found")
	}
	if location != nil {
		b.Location = *location
	}
	if qrURL != nil {
		b.QRURL = qrURL
	}
	m.bins[binID] = b
	m.writes++
	return &b, nil
}

func (m *memStore) DeleteBin(_ context.Context, binID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bins[binID]; !ok {
		return apperr.NotFound("Bin not found")
	}
	delete(m.bins, binID)
	m.writes++
	return nil
}

func (m *memStore) UpdateWasteLevel(_ context.Context, binID string, level int, now int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if level < 0 || level > 100 {
		return 0, apperr.Validation("waste_level check constraint")
	}
	b, ok := m.bins[binID]
	if !ok {
		return 0, apperr.NotFound("Bin not found")
	}
	b.WasteLevel = level
	b.LastUpdated = &now
	m.bins[binID] = b
	m.writes++
	return b.WasteLevel, nil
}

func (m *memStore) AssignBin(_ context.Context, binID string, userID *string) (*models.Bin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bins[binID]
	if !ok {
		return nil, apperr.NotFound("Bin not found")
	}
	b.AssignedUserID = userID
	m.bins[binID] = b
	m.writes++
	return &b, nil
}

func (m *memStore) CreateSchedule(_ context.Context, ps *models.PickupSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bins[ps.BinID]
	if !ok {
		return apperr.NotFound("Bin not found")
	}
	at := ps.ScheduledAt
	b.ScheduledPickup = &at
	m.bins[ps.BinID] = b
	m.schedules[ps.ID] = *ps
	m.writes++
	return nil
}

func (m *memStore) GetSchedule(_ context.Context, id string) (*models.PickupSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ps, ok := m.schedules[id]
	if !ok {
		return nil, apperr.NotFound("Pickup schedule not found")
	}
	return &ps, nil
}

func (m *memStore) filterSchedules(keep func(models.PickupSchedule) bool) []models.PickupSchedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.PickupSchedule{}
	for _, ps := range m.schedules {
		if keep(ps) {
			out = append(out, ps)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt < out[j].ScheduledAt })
	return out
}

func (m *memStore) ListSchedules(context.Context) ([]models.PickupSchedule, error) {
	return m.filterSchedules(func(models.PickupSchedule) bool { return true }), nil
}

func (m *memStore) ListSchedulesForBin(_ context.Context, binID string) ([]models.PickupSchedule, error) {
	return m.filterSchedules(func(ps models.PickupSchedule) bool { return ps.BinID == binID }), nil
}

func (m *memStore) ListSchedulesForOwner(_ context.Context, userID string) ([]models.PickupSchedule, error) {
	owned := map[string]bool{}
	for _, b := range m.filterBins(func(b models.Bin) bool { return b.OwnerID() == userID }) {
		owned[b.BinID] = true
	}
	return m.filterSchedules(func(ps models.PickupSchedule) bool { return owned[ps.BinID] }), nil
}

func (m *memStore) SetScheduleStatus(_ context.Context, id, status string, now int64) (*models.PickupSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ps, ok := m.schedules[id]
	if !ok || ps.Status != models.ScheduleStatusPending {
		return nil, apperr.Conflict("Pickup schedule is no longer pending")
	}
	ps.Status = status
	ps.UpdatedAt = now
	m.schedules[id] = ps
	m.writes++
	return &ps, nil
}

func (m *memStore) CompleteSchedule(_ context.Context, id string, now int64) (*models.PickupSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ps, ok := m.schedules[id]
	if !ok || ps.Status != models.ScheduleStatusPending {
		return nil, apperr.Conflict("Pickup schedule is no longer pending")
	}
	b, ok := m.bins[ps.BinID]
	if !ok {
		return nil, apperr.NotFound("Bin not found")
	}
	ps.Status = models.ScheduleStatusCompleted
	ps.CompletedAt = &now
	ps.UpdatedAt = now
	b.WasteLevel = 0
	b.LastPickup = &now
	b.LastUpdated = &now
	m.schedules[id] = ps
	m.bins[b.BinID] = b
	m.writes++
	return &ps, nil
}

func (m *memStore) CreateTransaction(_ context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[t.ID] = *t
	m.writes++
	return nil
}

func (m *memStore) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, apperr.NotFound("Transaction not found")
	}
	return &t, nil
}

func (m *memStore) filterTransactions(keep func(models.Transaction) bool) []models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Transaction{}
	for _, t := range m.transactions {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) ListTransactions(context.Context) ([]models.Transaction, error) {
	return m.filterTransactions(func(models.Transaction) bool { return true }), nil
}

func (m *memStore) ListTransactionsForOwner(_ context.Context, userID string) ([]models.Transaction, error) {
	return m.filterTransactions(func(t models.Transaction) bool {
		if t.UserID == userID {
			return true
		}
		b, ok := m.bins[t.BinID]
		return ok && b.AssignedUserID != nil && *b.AssignedUserID == userID
	}), nil
}

func (m *memStore) ListTransactionsForBin(_ context.Context, binID string) ([]models.Transaction, error) {
	return m.filterTransactions(func(t models.Transaction) bool { return t.BinID == binID }), nil
}

func (m *memStore) SetTransactionStatus(_ context.Context, id, status string, now int64) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, apperr.NotFound("Transaction not found")
	}
	t.Status = status
	t.UpdatedAt = now
	m.transactions[id] = t
	m.writes++
	return &t, nil
}

// memIdentity is an identity service that confirms emails immediately and
// issues "token-<id>" bearer tokens.
type memIdentity struct {
	mu        sync.Mutex
	byEmail   map[string]identityRecord
	deleted   []string
	deleteErr error
	verified  int
	healthErr error
	next      int
}

type identityRecord struct {
	id       string
	password string
}

func newMemIdentity() *memIdentity {
	return &memIdentity{byEmail: map[string]identityRecord{}}
}

func (m *memIdentity) create(email, password string) (*identity.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return nil, apperr.Conflict("User already registered")
	}
	m.next++
	rec := identityRecord{id: fmt.Sprintf("user-%d", m.next), password: password}
	m.byEmail[email] = rec
	return &identity.Identity{ID: rec.id, Email: email, EmailConfirmed: true}, nil
}

func (m *memIdentity) SignUp(_ context.Context, email, password string, _ map[string]interface{}) (*identity.Identity, error) {
	return m.create(email, password)
}

func (m *memIdentity) CreateUser(_ context.Context, email, password string, _ bool, _ map[string]interface{}) (*identity.Identity, error) {
	return m.create(email, password)
}

func (m *memIdentity) SignIn(_ context.Context, email, password string) (*identity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byEmail[email]
	if !ok || rec.password != password {
		return nil, identity.ErrInvalidCredentials
	}
	return &identity.Session{
		AccessToken: "token-" + rec.id,
		TokenType:   "bearer",
		ExpiresIn:   3600,
		Identity:    identity.Identity{ID: rec.id, Email: email, EmailConfirmed: true},
	}, nil
}

func (m *memIdentity) VerifyToken(_ context.Context, token string) (*identity.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verified++
	for email, rec := range m.byEmail {
		if token == "token-"+rec.id {
			return &identity.Identity{ID: rec.id, Email: email, EmailConfirmed: true}, nil
		}
	}
	return nil, apperr.Unauthenticated("invalid JWT")
}

func (m *memIdentity) ResetPassword(context.Context, string) error { return nil }

func (m *memIdentity) Health(context.Context) error { return m.healthErr }

func (m *memIdentity) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for email, rec := range m.byEmail {
		if rec.id == id {
			delete(m.byEmail, email)
			m.deleted = append(m.deleted, id)
			return nil
		}
	}
	return apperr.NotFound("User not found")
}
