package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"account-service/internal/domain"
	"account-service/internal/service/email"
	"account-service/pkg/id"
	"account-service/pkg/jwtutil"
	"account-service/pkg/utils"
	xerrors "account-service/pkg/utils/errors"
)

// VerificationUsecase owns the one-time token lifecycle for the three
// email-driven actions. A (user, action) pair has at most one current
// token; expired or completed rows are superseded by new rows, never
// reused.
type VerificationUsecase struct {
	verifications VerificationStore
	mailer        Mailer
	jwtGen        *jwtutil.Generator
	sf            *id.Snowflake
	appBaseURL    string
	tokenTTL      time.Duration
}

func NewVerificationUsecase(
	verifications VerificationStore,
	mailer Mailer,
	jwtGen *jwtutil.Generator,
	sf *id.Snowflake,
	appBaseURL string,
	tokenTTL time.Duration,
) *VerificationUsecase {
	return &VerificationUsecase{
		verifications: verifications,
		mailer:        mailer,
		jwtGen:        jwtGen,
		sf:            sf,
		appBaseURL:    appBaseURL,
		tokenTTL:      tokenTTL,
	}
}

var actionTemplates = map[string]string{
	domain.ActionRegister:      email.TemplateRegister,
	domain.ActionResetPassword: email.TemplateResetPassword,
	domain.ActionDeleteAccount: email.TemplateDeleteAccount,
}

// RequestToken issues or re-issues the current token for (user, action)
// and dispatches the verification email. A live uncompleted token is
// re-sent as-is; anything else gets a superseding row.
func (uc *VerificationUsecase) RequestToken(ctx context.Context, user *domain.User, action string) (*domain.EmailVerification, error) {
	if !domain.IsValidAction(action) {
		return nil, xerrors.ErrInvalidRequest
	}

	current, err := uc.verifications.GetLatest(ctx, user.ID, action)
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	if err == nil && !current.IsCompleted() && !current.IsExpired(now) {
		// same token, fresh signed payload, no new row
		if err := uc.dispatch(user, current); err != nil {
			return nil, err
		}
		return current, nil
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	v := &domain.EmailVerification{
		ID:        uc.sf.Generate(),
		UserID:    user.ID,
		Token:     token,
		Action:    action,
		CreatedAt: now,
		ExpiredAt: now.Add(uc.tokenTTL),
	}
	if err := uc.verifications.Create(ctx, v); err != nil {
		return nil, err
	}

	// The row is committed before the send: a failed email surfaces as
	// an error, but re-requesting re-sends the same token.
	if err := uc.dispatch(user, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (uc *VerificationUsecase) dispatch(user *domain.User, v *domain.EmailVerification) error {
	signed, err := uc.jwtGen.SignVerification(v.UserID, v.Token, time.Until(v.ExpiredAt))
	if err != nil {
		return fmt.Errorf("failed to sign verification payload: %w", err)
	}

	link := fmt.Sprintf("%s/verify-email?type=%s&token=%s", uc.appBaseURL, v.Action, url.QueryEscape(signed))
	name := ""
	if user.Name != nil {
		name = *user.Name
	}

	if err := uc.mailer.Send(user.Email, actionTemplates[v.Action], map[string]string{
		"Link": link,
		"Name": name,
	}); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

type CompleteResult struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// CompleteToken consumes a signed verification payload exactly once.
func (uc *VerificationUsecase) CompleteToken(ctx context.Context, signedToken, action string) (*CompleteResult, error) {
	if !domain.IsValidAction(action) {
		return nil, xerrors.ErrInvalidRequest
	}

	claims, err := uc.jwtGen.Verify(signedToken)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != jwtutil.PurposeVerification || claims.Token == "" {
		return nil, xerrors.ErrInvalidToken
	}

	v, err := uc.verifications.Complete(ctx, claims.Token, action)
	if err != nil {
		return nil, err
	}

	return &CompleteResult{Token: v.Token, UserID: v.UserID}, nil
}
