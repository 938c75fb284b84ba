// usecase/auth_local.usecase.go
package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"account-service/internal/domain"
	"account-service/pkg/id"
	"account-service/pkg/jwtutil"
	"account-service/pkg/kafka"
	"account-service/pkg/utils"
	xerrors "account-service/pkg/utils/errors"
)

// LocalAuthUsecase drives password-based registration, login and reset.
type LocalAuthUsecase struct {
	users        UserStore
	verification *VerificationUsecase
	lockout      *LockoutPolicy
	jwtGen       *jwtutil.Generator
	sf           *id.Snowflake
	producer     EventProducer
	txTimeout    time.Duration
}

func NewLocalAuthUsecase(
	users UserStore,
	verification *VerificationUsecase,
	lockout *LockoutPolicy,
	jwtGen *jwtutil.Generator,
	sf *id.Snowflake,
	producer EventProducer,
	txTimeout time.Duration,
) *LocalAuthUsecase {
	return &LocalAuthUsecase{
		users:        users,
		verification: verification,
		lockout:      lockout,
		jwtGen:       jwtGen,
		sf:           sf,
		producer:     producer,
		txTimeout:    txTimeout,
	}
}

// AuthResult is the normalized success payload for every login-shaped
// operation.
type AuthResult struct {
	User             *domain.UserProfile `json:"user"`
	AccessToken      string              `json:"access_token"`
	IsFirstTimeLogin bool                `json:"is_first_time_login"`
}

// SendEmailRegister starts (or restarts) email registration. An
// activated account is a conflict; a pending one just gets the current
// token re-dispatched; an unknown email gets a fresh pending user.
func (uc *LocalAuthUsecase) SendEmailRegister(ctx context.Context, emailAddr string) (*domain.EmailVerification, error) {
	if emailAddr == "" {
		return nil, xerrors.ErrEmailRequired
	}

	user, err := uc.users.GetByEmail(ctx, emailAddr)
	switch {
	case errors.Is(err, xerrors.ErrUserNotFound):
		user, err = uc.users.CreatePending(ctx, uc.sf.Generate(), emailAddr)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case user.Status == domain.StatusActivated:
		return nil, xerrors.ErrUserAlreadyExists
	case user.Status == domain.StatusDeactivated:
		return nil, xerrors.ErrAccountDeactivated
	}

	return uc.verification.RequestToken(ctx, user, domain.ActionRegister)
}

type RegisterRequest struct {
	UserID          string
	Password        string
	ConfirmPassword string
	PolicyIDs       []string
	Name            string
	Username        string
	DeviceID        string
}

// Register finishes a pending registration: validates, hashes, and in
// one transaction activates the user and records policy acceptances.
func (uc *LocalAuthUsecase) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if req.UserID == "" {
		return nil, xerrors.ErrUserIDRequired
	}
	if req.Password == "" || req.Password != req.ConfirmPassword {
		return nil, xerrors.ErrPasswordMismatch
	}

	taken, err := uc.users.UsernameTakenByOther(ctx, req.Username, req.UserID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, xerrors.ErrUsernameTaken
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, uc.txTimeout)
	defer cancel()

	user, err := uc.users.CompleteRegistration(txCtx, req.UserID, req.Name, req.Username, hash, req.PolicyIDs)
	if err != nil {
		return nil, err
	}

	token, _, err := uc.jwtGen.Generate(user.ID, req.DeviceID)
	if err != nil {
		return nil, err
	}

	uc.publishEvent(ctx, kafka.EventUserRegistered, user.ID, user.Email, "")

	return &AuthResult{
		User:             user.Profile(),
		AccessToken:      token,
		IsFirstTimeLogin: true,
	}, nil
}

// Login authenticates an email/password pair. The lockout check runs
// first so a locked account answers the same regardless of what was
// typed. The caller records the attempt outcome in the activity log.
func (uc *LocalAuthUsecase) Login(ctx context.Context, emailAddr, password, deviceID string) (*AuthResult, error) {
	status, err := uc.lockout.Check(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	if status.Locked {
		return nil, &xerrors.LockoutError{RetryAfterSeconds: status.RetryAfterSeconds}
	}

	user, err := uc.users.GetByEmail(ctx, emailAddr)
	if errors.Is(err, xerrors.ErrUserNotFound) {
		// generic: do not reveal whether the account exists
		return nil, xerrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if user.Status == domain.StatusPending {
		return nil, xerrors.ErrAccountNotActive
	}
	if user.Status == domain.StatusDeactivated {
		return nil, xerrors.ErrAccountDeactivated
	}
	if !user.HasPassword() {
		return nil, xerrors.ErrSocialAccountOnly
	}
	if !utils.CheckPasswordHash(password, *user.PasswordHash) {
		return nil, xerrors.ErrInvalidCredentials
	}

	if err := uc.users.UpdateLatestLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	token, _, err := uc.jwtGen.Generate(user.ID, deviceID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LatestLoginAt = &now

	return &AuthResult{
		User:             user.Profile(),
		AccessToken:      token,
		IsFirstTimeLogin: false,
	}, nil
}

// SendEmailResetPassword issues a reset token for an activated account.
func (uc *LocalAuthUsecase) SendEmailResetPassword(ctx context.Context, emailAddr string) (*domain.EmailVerification, error) {
	user, err := uc.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	if user.Status != domain.StatusActivated {
		return nil, xerrors.ErrAccountNotActive
	}
	return uc.verification.RequestToken(ctx, user, domain.ActionResetPassword)
}

func (uc *LocalAuthUsecase) ResetPassword(ctx context.Context, userID, password, confirmPassword string) error {
	if password == "" || password != confirmPassword {
		return xerrors.ErrPasswordMismatch
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	return uc.users.UpdatePassword(ctx, userID, hash)
}

// SendEmailDeleteAccount issues a delete-account token.
func (uc *LocalAuthUsecase) SendEmailDeleteAccount(ctx context.Context, userID string) (*domain.EmailVerification, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != domain.StatusActivated {
		return nil, xerrors.ErrAccountNotActive
	}
	return uc.verification.RequestToken(ctx, user, domain.ActionDeleteAccount)
}

// ConfirmDeleteAccount consumes the delete token and soft-deletes the
// account.
func (uc *LocalAuthUsecase) ConfirmDeleteAccount(ctx context.Context, signedToken string) error {
	result, err := uc.verification.CompleteToken(ctx, signedToken, domain.ActionDeleteAccount)
	if err != nil {
		return err
	}
	return uc.users.SoftDelete(ctx, result.UserID)
}

// VerifyEmail completes the token for any of the email-driven actions.
func (uc *LocalAuthUsecase) VerifyEmail(ctx context.Context, signedToken, action string) (*CompleteResult, error) {
	return uc.verification.CompleteToken(ctx, signedToken, action)
}

func (uc *LocalAuthUsecase) publishEvent(ctx context.Context, eventType, userID, emailAddr, provider string) {
	if uc.producer == nil {
		return
	}
	err := uc.producer.Publish(ctx, &kafka.AccountEventMessage{
		EventType:  eventType,
		UserID:     userID,
		Email:      emailAddr,
		Provider:   provider,
		OccurredAt: time.Now(),
	})
	if err != nil {
		// events are advisory; the registration itself already committed
		log.Printf("failed to publish %s event for user %s: %v", eventType, userID, err)
	}
}
