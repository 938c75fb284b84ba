// usecase/session.usecase.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"account-service/internal/domain"
	"account-service/internal/service/email"
	xerrors "account-service/pkg/utils/errors"

	"github.com/google/uuid"
)

const (
	sessionCacheNamespace = "device_session"
	sessionCacheTTL       = 30 * time.Minute
)

// SessionUsecase tracks which devices are currently trusted for a user
// and bounds how many may be active at once.
type SessionUsecase struct {
	sessions    SessionStore
	cache       SessionCache
	mailer      Mailer
	maxSessions int
}

func NewSessionUsecase(sessions SessionStore, cache SessionCache, mailer Mailer, maxSessions int) *SessionUsecase {
	return &SessionUsecase{
		sessions:    sessions,
		cache:       cache,
		mailer:      mailer,
		maxSessions: maxSessions,
	}
}

type UpsertResult struct {
	Session *domain.DeviceSession `json:"session"`
	Created bool                  `json:"created"`
}

// Upsert registers or refreshes the (user, device) pairing after a
// successful login. A brand-new device triggers a notification email;
// a known one only gets its last_active_at bumped.
func (u *SessionUsecase) Upsert(ctx context.Context, emailAddr, userID, deviceID, deviceName, ipAddress string) (*UpsertResult, error) {
	_, err := u.sessions.GetByUserAndDevice(ctx, userID, deviceID)
	if err == nil {
		refreshed, err := u.sessions.RefreshActive(ctx, userID, deviceID, ipAddress)
		if err != nil {
			return nil, err
		}
		u.cacheSession(ctx, refreshed)
		return &UpsertResult{Session: refreshed}, nil
	}
	if !errors.Is(err, xerrors.ErrSessionNotFound) {
		return nil, err
	}

	created, err := u.sessions.Create(ctx, &domain.DeviceSession{
		ID:         uuid.NewString(),
		UserID:     userID,
		DeviceID:   deviceID,
		DeviceName: deviceName,
		IPAddress:  ipAddress,
	})
	if err != nil {
		return nil, err
	}

	// notification only; the session is already persisted
	if err := u.mailer.Send(emailAddr, email.TemplateNewDevice, map[string]string{
		"Name":       emailAddr,
		"DeviceName": deviceName,
		"IPAddress":  ipAddress,
	}); err != nil {
		log.Printf("failed to send new-device email to %s: %v", emailAddr, err)
	}

	u.cacheSession(ctx, created)
	return &UpsertResult{Session: created, Created: true}, nil
}

// PruneOldestIfExceeded makes room for a new device. A recognized
// (user, device) pairing needs no pruning and is returned as-is. For an
// unrecognized device at the session cap, the least-recently-active
// session is revoked. List/revoke failures surface as a conflict
// wrapping the inner error.
//
// The list-then-delete pair is deliberately not transactional: under
// concurrent logins the cap can be exceeded by one until the next
// prune, which is acceptable here.
func (u *SessionUsecase) PruneOldestIfExceeded(ctx context.Context, userID, deviceID string) (*domain.DeviceSession, error) {
	existing, err := u.sessions.GetByUserAndDevice(ctx, userID, deviceID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, xerrors.ErrSessionNotFound) {
		return nil, err
	}

	sessions, err := u.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrConflict, err)
	}
	if len(sessions) < u.maxSessions {
		return nil, nil
	}

	oldest := sessions[0]
	if err := u.sessions.Delete(ctx, userID, oldest.DeviceID); err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrConflict, err)
	}
	u.dropCachedSession(ctx, userID, oldest.DeviceID)
	return nil, nil
}

// UpdateActive confirms the device is still trusted on an authenticated
// request. An unrecognized pairing yields a session-expired error that
// carries the sessions still active elsewhere; a recognized one is
// refreshed and the full list returned, least-recently-active first.
func (u *SessionUsecase) UpdateActive(ctx context.Context, userID, deviceID string) ([]*domain.DeviceSession, error) {
	refreshed, err := u.sessions.RefreshActive(ctx, userID, deviceID, "")
	if errors.Is(err, xerrors.ErrSessionNotFound) {
		others, listErr := u.sessions.ListByUser(ctx, userID)
		if listErr != nil {
			return nil, listErr
		}
		return nil, &xerrors.SessionExpiredError{ActiveSessions: others}
	}
	if err != nil {
		return nil, err
	}
	u.cacheSession(ctx, refreshed)

	return u.sessions.ListByUser(ctx, userID)
}

// Revoke deletes one pairing. Revoking an absent session reports
// not-found rather than succeeding silently.
func (u *SessionUsecase) Revoke(ctx context.Context, userID, deviceID string) error {
	if err := u.sessions.Delete(ctx, userID, deviceID); err != nil {
		return err
	}
	u.dropCachedSession(ctx, userID, deviceID)
	return nil
}

func (u *SessionUsecase) List(ctx context.Context, userID string) ([]*domain.DeviceSession, error) {
	return u.sessions.ListByUser(ctx, userID)
}

func (u *SessionUsecase) cacheSession(ctx context.Context, s *domain.DeviceSession) {
	if u.cache == nil {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	key := s.UserID + ":" + s.DeviceID
	if err := u.cache.Set(ctx, sessionCacheNamespace, key, data, sessionCacheTTL); err != nil {
		log.Printf("failed to cache session %s: %v", key, err)
	}
}

func (u *SessionUsecase) dropCachedSession(ctx context.Context, userID, deviceID string) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Delete(ctx, sessionCacheNamespace, userID+":"+deviceID); err != nil {
		log.Printf("failed to drop cached session %s:%s: %v", userID, deviceID, err)
	}
}
