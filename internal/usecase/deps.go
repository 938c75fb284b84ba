package usecase

import (
	"context"
	"time"

	"account-service/internal/domain"
	"account-service/internal/service/geo"
	"account-service/pkg/kafka"
)

// Store interfaces are declared here, on the consumer side, so the
// usecases can be exercised against fakes. The pgx repositories in
// internal/repository satisfy them.

type UserStore interface {
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UsernameTakenByOther(ctx context.Context, username, userID string) (bool, error)
	CreatePending(ctx context.Context, userID, email string) (*domain.User, error)
	UpdateLatestLogin(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SoftDelete(ctx context.Context, userID string) error
	CompleteRegistration(ctx context.Context, userID, name, username, passwordHash string, policyIDs []string) (*domain.User, error)
}

type ProviderStore interface {
	GetByProviderUID(ctx context.Context, provider, providerUID string) (*domain.AuthProvider, error)
	Relink(ctx context.Context, link *domain.AuthProvider) error
	CreateSocialUser(ctx context.Context, user *domain.User, link *domain.AuthProvider, policyIDs []string) (*domain.User, error)
}

type VerificationStore interface {
	GetLatest(ctx context.Context, userID, action string) (*domain.EmailVerification, error)
	Create(ctx context.Context, v *domain.EmailVerification) error
	Complete(ctx context.Context, token, action string) (*domain.EmailVerification, error)
}

type ActivityStore interface {
	Create(ctx context.Context, rec *domain.UserActivityLog) error
	ListSince(ctx context.Context, email string, since time.Time) ([]*domain.UserActivityLog, error)
}

type SessionStore interface {
	GetByUserAndDevice(ctx context.Context, userID, deviceID string) (*domain.DeviceSession, error)
	Create(ctx context.Context, s *domain.DeviceSession) (*domain.DeviceSession, error)
	RefreshActive(ctx context.Context, userID, deviceID, ipAddress string) (*domain.DeviceSession, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.DeviceSession, error)
	Delete(ctx context.Context, userID, deviceID string) error
}

type PolicyStore interface {
	ListAll(ctx context.Context) ([]*domain.Policy, error)
}

// Mailer delivers a templated email. Failures are the caller's policy:
// verification flows surface them, notifications swallow them.
type Mailer interface {
	Send(to, templateID string, data map[string]string) error
}

type EventProducer interface {
	Publish(ctx context.Context, msg *kafka.AccountEventMessage) error
}

type GeoLookup interface {
	Lookup(ctx context.Context, ip string) (*geo.Location, error)
}

type SessionCache interface {
	Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, namespace, key string) error
}
