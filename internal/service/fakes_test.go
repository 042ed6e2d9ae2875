package service

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	"duochat/internal/domain"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users []domain.User
}

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, user)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, excludeID string) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.ID != excludeID {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeThreadRepo struct {
	mu      sync.Mutex
	threads []domain.Thread
}

func (r *fakeThreadRepo) FindPersonalByUsers(_ context.Context, userA, userB string) (domain.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.threads {
		if t.Type != domain.ThreadTypePersonal || len(t.UserIDs) != 2 {
			continue
		}
		if containsID(t.UserIDs, userA) && containsID(t.UserIDs, userB) {
			return t, nil
		}
	}
	return domain.Thread{}, pgx.ErrNoRows
}

func (r *fakeThreadRepo) Create(_ context.Context, thread domain.Thread) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads = append(r.threads, thread)
	return nil
}

func (r *fakeThreadRepo) ListByUser(_ context.Context, userID string) ([]domain.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Thread
	for _, t := range r.threads {
		if containsID(t.UserIDs, userID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []domain.Message
}

func (r *fakeMessageRepo) Create(_ context.Context, message domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

func (r *fakeMessageRepo) ListByThreadID(_ context.Context, threadID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.messages {
		if m.ThreadID == threadID {
			out = append(out, m)
		}
	}
	return out, nil
}
