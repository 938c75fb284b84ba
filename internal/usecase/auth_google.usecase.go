// usecase/auth_google.usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"account-service/internal/domain"
	oauth2svc "account-service/internal/service/oauth2"
	"account-service/pkg/id"
	"account-service/pkg/jwtutil"
	"account-service/pkg/kafka"
	xerrors "account-service/pkg/utils/errors"
)

// GoogleAuthUsecase handles Google sign-in: verifying the ID token,
// binding the Google subject to a local user, and creating the user on
// first login.
type GoogleAuthUsecase struct {
	users     UserStore
	providers ProviderStore
	policies  PolicyStore
	jwtGen    *jwtutil.Generator
	sf        *id.Snowflake
	producer  EventProducer
	clientID  string
	txTimeout time.Duration

	// swapped out in tests
	verifyToken func(ctx context.Context, token, clientID string) (*oauth2svc.GoogleUser, error)
}

func NewGoogleAuthUsecase(
	users UserStore,
	providers ProviderStore,
	policies PolicyStore,
	jwtGen *jwtutil.Generator,
	sf *id.Snowflake,
	producer EventProducer,
	clientID string,
	txTimeout time.Duration,
) *GoogleAuthUsecase {
	return &GoogleAuthUsecase{
		users:       users,
		providers:   providers,
		policies:    policies,
		jwtGen:      jwtGen,
		sf:          sf,
		producer:    producer,
		clientID:    clientID,
		txTimeout:   txTimeout,
		verifyToken: oauth2svc.VerifyGoogleToken,
	}
}

// LoginWithGoogle verifies the ID token and logs the user in, creating
// the account and provider link on first contact.
//
// When the user exists but the provider link is gone (previously
// unlinked), the link is silently recreated and the login proceeds.
func (uc *GoogleAuthUsecase) LoginWithGoogle(ctx context.Context, idToken, deviceID string) (*AuthResult, error) {
	gu, err := uc.verifyToken(ctx, idToken, uc.clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify google token: %w", err)
	}
	if gu.Sub == "" || gu.Email == "" || gu.Name == "" {
		return nil, xerrors.ErrMissingScope
	}

	link, err := uc.providers.GetByProviderUID(ctx, domain.ProviderGoogle, gu.Sub)
	switch {
	case err == nil:
		return uc.loginLinked(ctx, link, deviceID)
	case errors.Is(err, xerrors.ErrNotFound):
		// fall through to email lookup
	default:
		return nil, err
	}

	user, err := uc.users.GetByEmail(ctx, gu.Email)
	switch {
	case err == nil:
		return uc.relinkAndLogin(ctx, user, gu, deviceID)
	case errors.Is(err, xerrors.ErrUserNotFound):
		return uc.firstLogin(ctx, gu, deviceID)
	default:
		return nil, err
	}
}

// loginLinked: user and link both present.
func (uc *GoogleAuthUsecase) loginLinked(ctx context.Context, link *domain.AuthProvider, deviceID string) (*AuthResult, error) {
	user, err := uc.users.GetByID(ctx, link.UserID)
	if errors.Is(err, xerrors.ErrUserNotFound) {
		// orphaned link: the provider subject points at nothing
		return nil, xerrors.ErrProviderMismatch
	}
	if err != nil {
		return nil, err
	}

	if err := uc.users.UpdateLatestLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	token, _, err := uc.jwtGen.Generate(user.ID, deviceID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:             user.Profile(),
		AccessToken:      token,
		IsFirstTimeLogin: false,
	}, nil
}

// relinkAndLogin: user present, link absent.
func (uc *GoogleAuthUsecase) relinkAndLogin(ctx context.Context, user *domain.User, gu *oauth2svc.GoogleUser, deviceID string) (*AuthResult, error) {
	link := &domain.AuthProvider{
		ID:            uc.sf.Generate(),
		UserID:        user.ID,
		Provider:      domain.ProviderGoogle,
		ProviderUID:   gu.Sub,
		ProviderEmail: &gu.Email,
	}

	txCtx, cancel := context.WithTimeout(ctx, uc.txTimeout)
	defer cancel()

	if err := uc.providers.Relink(txCtx, link); err != nil {
		return nil, err
	}

	token, _, err := uc.jwtGen.Generate(user.ID, deviceID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:             user.Profile(),
		AccessToken:      token,
		IsFirstTimeLogin: false,
	}, nil
}

// firstLogin: neither user nor link exists yet.
func (uc *GoogleAuthUsecase) firstLogin(ctx context.Context, gu *oauth2svc.GoogleUser, deviceID string) (*AuthResult, error) {
	policies, err := uc.policies.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	policyIDs := make([]string, 0, len(policies))
	for _, p := range policies {
		policyIDs = append(policyIDs, p.ID)
	}

	newUser := &domain.User{
		ID:    uc.sf.Generate(),
		Email: gu.Email,
		Name:  &gu.Name,
	}
	if gu.Picture != "" {
		newUser.Image = &gu.Picture
	}

	link := &domain.AuthProvider{
		ID:            uc.sf.Generate(),
		UserID:        newUser.ID,
		Provider:      domain.ProviderGoogle,
		ProviderUID:   gu.Sub,
		ProviderEmail: &gu.Email,
	}

	txCtx, cancel := context.WithTimeout(ctx, uc.txTimeout)
	defer cancel()

	created, err := uc.providers.CreateSocialUser(txCtx, newUser, link, policyIDs)
	if err != nil {
		return nil, err
	}

	token, _, err := uc.jwtGen.Generate(created.ID, deviceID)
	if err != nil {
		return nil, err
	}

	uc.publishEvent(ctx, created.ID, created.Email)

	return &AuthResult{
		User:             created.Profile(),
		AccessToken:      token,
		IsFirstTimeLogin: true,
	}, nil
}

func (uc *GoogleAuthUsecase) publishEvent(ctx context.Context, userID, emailAddr string) {
	if uc.producer == nil {
		return
	}
	err := uc.producer.Publish(ctx, &kafka.AccountEventMessage{
		EventType:  kafka.EventUserSocialFirstLogin,
		UserID:     userID,
		Email:      emailAddr,
		Provider:   domain.ProviderGoogle,
		OccurredAt: time.Now(),
	})
	if err != nil {
		// advisory only
		log.Printf("failed to publish social first-login event for user %s: %v", userID, err)
	}
}
