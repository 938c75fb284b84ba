package usecase

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"account-service/internal/domain"
	"account-service/internal/service/geo"
	"account-service/pkg/kafka"
	xerrors "account-service/pkg/utils/errors"
)

// In-memory stand-ins for the pgx repositories. They enforce the same
// uniqueness rules the schema does so the usecases can be exercised
// end to end without a database.

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User // by id
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*domain.User{}}
}

func (s *fakeUserStore) put(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *fakeUserStore) GetByID(_ context.Context, userID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.DeletedAt != nil {
		return nil, xerrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email && u.DeletedAt == nil {
			cp := *u
			return &cp, nil
		}
	}
	return nil, xerrors.ErrUserNotFound
}

func (s *fakeUserStore) UsernameTakenByOther(_ context.Context, username, userID string) (bool, error) {
	if username == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID != userID && u.Username != nil && *u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) CreatePending(_ context.Context, userID, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return nil, xerrors.ErrUserAlreadyExists
		}
	}
	u := &domain.User{
		ID:        userID,
		Email:     email,
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
	}
	s.users[userID] = u
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) UpdateLatestLogin(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return xerrors.ErrUserNotFound
	}
	now := time.Now()
	u.LatestLoginAt = &now
	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.DeletedAt != nil {
		return xerrors.ErrUserNotFound
	}
	u.PasswordHash = &passwordHash
	return nil
}

func (s *fakeUserStore) SoftDelete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.DeletedAt != nil {
		return xerrors.ErrUserNotFound
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

func (s *fakeUserStore) CompleteRegistration(_ context.Context, userID, name, username, passwordHash string, policyIDs []string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, xerrors.ErrUserNotFound
	}
	u.Status = domain.StatusActivated
	if name != "" {
		u.Name = &name
	}
	if username != "" {
		u.Username = &username
	}
	u.PasswordHash = &passwordHash
	cp := *u
	return &cp, nil
}

type fakeProviderStore struct {
	mu    sync.Mutex
	links map[string]*domain.AuthProvider // by provider+":"+uid
	users *fakeUserStore
}

func newFakeProviderStore(users *fakeUserStore) *fakeProviderStore {
	return &fakeProviderStore{links: map[string]*domain.AuthProvider{}, users: users}
}

func (s *fakeProviderStore) GetByProviderUID(_ context.Context, provider, providerUID string) (*domain.AuthProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[provider+":"+providerUID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *link
	return &cp, nil
}

func (s *fakeProviderStore) Relink(_ context.Context, link *domain.AuthProvider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := link.Provider + ":" + link.ProviderUID
	if _, exists := s.links[key]; exists {
		return xerrors.ErrProviderMismatch
	}
	cp := *link
	s.links[key] = &cp
	return nil
}

func (s *fakeProviderStore) CreateSocialUser(_ context.Context, user *domain.User, link *domain.AuthProvider, _ []string) (*domain.User, error) {
	s.mu.Lock()
	key := link.Provider + ":" + link.ProviderUID
	if _, exists := s.links[key]; exists {
		s.mu.Unlock()
		return nil, xerrors.ErrUserAlreadyExists
	}
	cp := *link
	s.links[key] = &cp
	s.mu.Unlock()

	user.Status = domain.StatusActivated
	user.CreatedAt = time.Now()
	s.users.put(user)
	out := *user
	return &out, nil
}

type fakeVerificationStore struct {
	mu   sync.Mutex
	rows []*domain.EmailVerification
}

func newFakeVerificationStore() *fakeVerificationStore {
	return &fakeVerificationStore{}
}

func (s *fakeVerificationStore) GetLatest(_ context.Context, userID, action string) (*domain.EmailVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.EmailVerification
	for _, v := range s.rows {
		if v.UserID != userID || v.Action != action {
			continue
		}
		if latest == nil || v.CreatedAt.After(latest.CreatedAt) {
			latest = v
		}
	}
	if latest == nil {
		return nil, xerrors.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *fakeVerificationStore) Create(_ context.Context, v *domain.EmailVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.rows = append(s.rows, &cp)
	return nil
}

func (s *fakeVerificationStore) Complete(_ context.Context, token, action string) (*domain.EmailVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.rows {
		if v.Token != token || v.Action != action {
			continue
		}
		if v.CompletedAt != nil {
			return nil, xerrors.ErrInvalidToken
		}
		if time.Now().After(v.ExpiredAt) {
			return nil, xerrors.ErrExpiredToken
		}
		now := time.Now()
		v.CompletedAt = &now
		cp := *v
		return &cp, nil
	}
	return nil, xerrors.ErrInvalidToken
}

func (s *fakeVerificationStore) count(userID, action string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.rows {
		if v.UserID == userID && v.Action == action {
			n++
		}
	}
	return n
}

type fakeActivityStore struct {
	mu   sync.Mutex
	rows []*domain.UserActivityLog
	seq  int
}

func newFakeActivityStore() *fakeActivityStore {
	return &fakeActivityStore{}
}

func (s *fakeActivityStore) Create(_ context.Context, rec *domain.UserActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	if cp.ID == "" {
		s.seq++
		cp.ID = "act-" + strconv.Itoa(s.seq)
	}
	s.rows = append(s.rows, &cp)
	return nil
}

// ListSince returns login rows newer than since, newest first, the same
// order the SQL repository produces.
func (s *fakeActivityStore) ListSince(_ context.Context, email string, since time.Time) ([]*domain.UserActivityLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.UserActivityLog
	for _, rec := range s.rows {
		if rec.Email == email && rec.Action == domain.ActivityActionLogin && rec.CreatedAt.After(since) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.DeviceSession // by userID+":"+deviceID
	seq      int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]*domain.DeviceSession{}}
}

func (s *fakeSessionStore) GetByUserAndDevice(_ context.Context, userID, deviceID string) (*domain.DeviceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID+":"+deviceID]
	if !ok {
		return nil, xerrors.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *fakeSessionStore) Create(_ context.Context, in *domain.DeviceSession) (*domain.DeviceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	cp := *in
	cp.CreatedAt = time.Now()
	cp.LastActiveAt = cp.CreatedAt.Add(time.Duration(s.seq) * time.Millisecond)
	s.sessions[in.UserID+":"+in.DeviceID] = &cp
	out := cp
	return &out, nil
}

func (s *fakeSessionStore) RefreshActive(_ context.Context, userID, deviceID, ipAddress string) (*domain.DeviceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID+":"+deviceID]
	if !ok {
		return nil, xerrors.ErrSessionNotFound
	}
	s.seq++
	sess.LastActiveAt = time.Now().Add(time.Duration(s.seq) * time.Millisecond)
	if ipAddress != "" {
		sess.IPAddress = ipAddress
	}
	cp := *sess
	return &cp, nil
}

// ListByUser returns sessions least-recently-active first, matching the
// SQL repository's ORDER BY.
func (s *fakeSessionStore) ListByUser(_ context.Context, userID string) ([]*domain.DeviceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.DeviceSession
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			cp := *sess
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActiveAt.Before(out[j].LastActiveAt) })
	return out, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, userID, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userID + ":" + deviceID
	if _, ok := s.sessions[key]; !ok {
		return xerrors.ErrSessionNotFound
	}
	delete(s.sessions, key)
	return nil
}

type fakePolicyStore struct {
	policies []*domain.Policy
}

func (s *fakePolicyStore) ListAll(_ context.Context) ([]*domain.Policy, error) {
	return s.policies, nil
}

type sentMail struct {
	To         string
	TemplateID string
	Data       map[string]string
}

type fakeMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	failWith error
}

func (m *fakeMailer) Send(to, templateID string, data map[string]string) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, TemplateID: templateID, Data: data})
	return nil
}

func (m *fakeMailer) lastSent() *sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return nil
	}
	return &m.sent[len(m.sent)-1]
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []*kafka.AccountEventMessage
}

func (p *fakeProducer) Publish(_ context.Context, msg *kafka.AccountEventMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

type fakeGeo struct {
	loc *geo.Location
}

func (g *fakeGeo) Lookup(_ context.Context, _ string) (*geo.Location, error) {
	if g.loc == nil {
		return nil, context.DeadlineExceeded
	}
	return g.loc, nil
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]interface{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]interface{}{}}
}

func (c *fakeCache) Set(_ context.Context, namespace, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[namespace+":"+key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, namespace, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, namespace+":"+key)
	return nil
}
