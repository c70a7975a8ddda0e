package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tkubota31/express-messagely/internal/models"
	"github.com/tkubota31/express-messagely/internal/repository"
)

type fakeMessageRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]models.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{rows: make(map[uint]models.Message)}
}

func (r *fakeMessageRepo) Create(_ context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	r.rows[m.ID] = *m
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id uint) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *fakeMessageRepo) MarkReadIfUnread(_ context.Context, id uint, readAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok || m.ReadAt != nil {
		return false, nil
	}
	m.ReadAt = &readAt
	r.rows[id] = m
	return true, nil
}

func (r *fakeMessageRepo) list(match func(models.Message) bool) []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, m := range r.rows {
		if match(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out
}

func (r *fakeMessageRepo) ListByRecipient(_ context.Context, username string) ([]models.Message, error) {
	return r.list(func(m models.Message) bool { return m.ToUsername == username }), nil
}

func (r *fakeMessageRepo) ListBySender(_ context.Context, username string) ([]models.Message, error) {
	return r.list(func(m models.Message) bool { return m.FromUsername == username }), nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]models.User
	lookup int
}

func newFakeUserRepo(usernames ...string) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]models.User)}
	for _, u := range usernames {
		r.users[u] = models.User{
			Username:  u,
			FirstName: u,
			LastName:  "Tester",
			Phone:     "+15555550100",
			Role:      "user",
		}
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Username]; ok {
		return repository.ErrDuplicate
	}
	hash, err := models.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hash
	if u.Role == "" {
		u.Role = "user"
	}
	r.users[u.Username] = *u
	return nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookup++
	u, ok := r.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, username string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLoginAt = &at
	r.users[username] = u
	return nil
}

func (r *fakeUserRepo) lookups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup
}

type notification struct {
	username string
	event    string
	payload  interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) Notify(username, event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{username, event, payload})
}
