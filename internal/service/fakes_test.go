package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alimikegami/campus-platform/auth-service/internal/domain"
	"github.com/alimikegami/campus-platform/auth-service/internal/repository"
	"github.com/alimikegami/campus-platform/auth-service/pkg/errs"
)

type fakeRepo struct {
	users   map[int64]domain.User
	records map[domain.Role]map[int64]bool
	heads   map[int64]bool

	lookupErr       error
	createRecordErr error
	updateHashErr   error
	headErr         error
	commitErr       error
	// concurrentActivation stores a hash just before ActivateUser runs, as
	// if another request won the race.
	concurrentActivation bool

	writes int
}

func newFakeRepo(users ...domain.User) *fakeRepo {
	r := &fakeRepo{
		users:   make(map[int64]domain.User),
		records: map[domain.Role]map[int64]bool{},
		heads:   make(map[int64]bool),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeRepo) addRecord(id int64, kind domain.Role) {
	if r.records[kind] == nil {
		r.records[kind] = make(map[int64]bool)
	}
	r.records[kind][id] = true
}

func (r *fakeRepo) hasRecord(id int64, kind domain.Role) bool {
	return r.records[kind][id]
}

func (r *fakeRepo) snapshot() (map[int64]domain.User, map[domain.Role]map[int64]bool) {
	users := make(map[int64]domain.User, len(r.users))
	for k, v := range r.users {
		users[k] = v
	}
	records := make(map[domain.Role]map[int64]bool, len(r.records))
	for kind, ids := range r.records {
		records[kind] = make(map[int64]bool, len(ids))
		for id := range ids {
			records[kind][id] = true
		}
	}
	return users, records
}

func (r *fakeRepo) HandleTrx(ctx context.Context, fn func(ctx context.Context, repo repository.UserRepository) error) error {
	users, records := r.snapshot()

	err := fn(ctx, r)
	if err == nil && r.commitErr != nil {
		err = fmt.Errorf("%w: %v", errs.ErrPersistence, r.commitErr)
	}
	if err != nil {
		r.users, r.records = users, records
	}
	return err
}

func (r *fakeRepo) find(match func(domain.User) bool) (domain.User, error) {
	if r.lookupErr != nil {
		return domain.User{}, fmt.Errorf("%w: %v", errs.ErrPersistence, r.lookupErr)
	}
	for _, u := range r.users {
		if match(u) {
			return u, nil
		}
	}
	return domain.User{}, nil
}

func (r *fakeRepo) GetUserByCinAndEmail(ctx context.Context, cin, email string) (domain.User, error) {
	return r.find(func(u domain.User) bool { return u.CIN == cin && u.Email == email })
}

func (r *fakeRepo) GetUserByCinOrEmail(ctx context.Context, identifier string) (domain.User, error) {
	return r.find(func(u domain.User) bool { return u.CIN == identifier || u.Email == identifier })
}

func (r *fakeRepo) ActivateUser(ctx context.Context, userID int64, hash string) error {
	u := r.users[userID]
	if r.concurrentActivation {
		other := "$2a$10$someoneelsegotherefirst"
		u.PasswordHash = &other
		r.users[userID] = u
	}
	if u.IsActivated() {
		return errs.ErrAlreadyActivated
	}
	r.writes++
	u.PasswordHash = &hash
	r.users[userID] = u
	return nil
}

func (r *fakeRepo) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	if r.updateHashErr != nil {
		return fmt.Errorf("%w: %v", errs.ErrPersistence, r.updateHashErr)
	}
	r.writes++
	u := r.users[userID]
	u.PasswordHash = &hash
	r.users[userID] = u
	return nil
}

func (r *fakeRepo) RoleRecordExists(ctx context.Context, userID int64, kind domain.Role) (bool, error) {
	return r.hasRecord(userID, kind), nil
}

func (r *fakeRepo) CreateRoleRecord(ctx context.Context, record domain.RoleRecord) error {
	if r.createRecordErr != nil {
		return fmt.Errorf("%w: %v", errs.ErrPersistence, r.createRecordErr)
	}
	if r.hasRecord(record.UserID, record.Kind) {
		return errors.New("duplicate role record")
	}
	r.writes++
	r.addRecord(record.UserID, record.Kind)
	return nil
}

func (r *fakeRepo) IsDepartmentHead(ctx context.Context, teacherID int64) (bool, error) {
	if r.headErr != nil {
		return false, r.headErr
	}
	return r.heads[teacherID], nil
}

func (r *fakeRepo) CountLegacyHashes(ctx context.Context) (int64, error) {
	return 0, nil
}

type sentMail struct {
	To, Subject, Body       string
	TimeoutSeconds, Retries int
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (n *fakeNotifier) Send(to, subject, body string, timeoutSeconds, maxRetries int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: body, TimeoutSeconds: timeoutSeconds, Retries: maxRetries})
}

type publishedEvent struct {
	EventType string
	Key       string
	Data      interface{}
}

type fakePublisher struct {
	err    error
	events []publishedEvent
}

func (p *fakePublisher) Publish(ctx context.Context, eventType, key string, data interface{}) error {
	p.events = append(p.events, publishedEvent{EventType: eventType, Key: key, Data: data})
	return p.err
}
