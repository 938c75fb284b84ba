package usecase

import (
	"context"
	"net/http"
	"testing"
	"time"

	"account-service/internal/domain"
	"account-service/pkg/kafka"
	xerrors "account-service/pkg/utils/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type localFixture struct {
	uc       *LocalAuthUsecase
	users    *fakeUserStore
	verifs   *fakeVerificationStore
	activity *fakeActivityStore
	mailer   *fakeMailer
	producer *fakeProducer
}

func newLocalFixture(t *testing.T) *localFixture {
	t.Helper()
	users := newFakeUserStore()
	verifs := newFakeVerificationStore()
	activity := newFakeActivityStore()
	mailer := &fakeMailer{}
	producer := &fakeProducer{}
	jwtGen := newTestJWT(t)
	sf := newTestSnowflake(t)

	verificationUC := NewVerificationUsecase(verifs, mailer, jwtGen, sf, "https://app.example.com", 24*time.Hour)
	lockout := NewLockoutPolicy(activity, 15*time.Minute, 5)

	return &localFixture{
		uc:       NewLocalAuthUsecase(users, verificationUC, lockout, jwtGen, sf, producer, 5*time.Second),
		users:    users,
		verifs:   verifs,
		activity: activity,
		mailer:   mailer,
		producer: producer,
	}
}

// registerUser walks the whole registration flow and returns the
// activated user.
func (f *localFixture) registerUser(t *testing.T, emailAddr, password string) *domain.User {
	t.Helper()
	ctx := context.Background()

	v, err := f.uc.SendEmailRegister(ctx, emailAddr)
	require.NoError(t, err)

	result, err := f.uc.Register(ctx, RegisterRequest{
		UserID:          v.UserID,
		Password:        password,
		ConfirmPassword: password,
		Name:            "Test User",
		Username:        "user-" + v.UserID,
		DeviceID:        "device-1",
	})
	require.NoError(t, err)

	user, err := f.users.GetByID(ctx, result.User.ID)
	require.NoError(t, err)
	return user
}

func TestSendEmailRegisterCreatesPendingUser(t *testing.T) {
	f := newLocalFixture(t)

	v, err := f.uc.SendEmailRegister(context.Background(), "new@example.com")
	require.NoError(t, err)

	user, err := f.users.GetByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, user.Status)
	assert.Equal(t, user.ID, v.UserID)
	require.NotNil(t, f.mailer.lastSent())
}

func TestSendEmailRegisterRepeatReusesToken(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()

	first, err := f.uc.SendEmailRegister(ctx, "new@example.com")
	require.NoError(t, err)
	second, err := f.uc.SendEmailRegister(ctx, "new@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, 1, f.verifs.count(first.UserID, domain.ActionRegister))
}

func TestSendEmailRegisterActivatedConflicts(t *testing.T) {
	f := newLocalFixture(t)
	f.registerUser(t, "taken@example.com", "hunter2!")

	_, err := f.uc.SendEmailRegister(context.Background(), "taken@example.com")
	assert.ErrorIs(t, err, xerrors.ErrUserAlreadyExists)
}

func TestSendEmailRegisterRequiresEmail(t *testing.T) {
	f := newLocalFixture(t)

	_, err := f.uc.SendEmailRegister(context.Background(), "")
	assert.ErrorIs(t, err, xerrors.ErrEmailRequired)
}

func TestRegisterPasswordMismatchWritesNothing(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()

	v, err := f.uc.SendEmailRegister(ctx, "new@example.com")
	require.NoError(t, err)

	_, err = f.uc.Register(ctx, RegisterRequest{
		UserID:          v.UserID,
		Password:        "one",
		ConfirmPassword: "two",
	})
	assert.ErrorIs(t, err, xerrors.ErrPasswordMismatch)

	user, err := f.users.GetByID(ctx, v.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, user.Status)
	assert.False(t, user.HasPassword())
}

func TestRegisterActivatesAndPublishes(t *testing.T) {
	f := newLocalFixture(t)
	user := f.registerUser(t, "new@example.com", "hunter2!")

	assert.Equal(t, domain.StatusActivated, user.Status)
	assert.True(t, user.HasPassword())

	require.Len(t, f.producer.messages, 1)
	assert.Equal(t, kafka.EventUserRegistered, f.producer.messages[0].EventType)
	assert.Equal(t, user.ID, f.producer.messages[0].UserID)
}

func TestRegisterUsernameTaken(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()
	existing := f.registerUser(t, "first@example.com", "hunter2!")

	v, err := f.uc.SendEmailRegister(ctx, "second@example.com")
	require.NoError(t, err)

	_, err = f.uc.Register(ctx, RegisterRequest{
		UserID:          v.UserID,
		Password:        "hunter2!",
		ConfirmPassword: "hunter2!",
		Username:        *existing.Username,
	})
	assert.ErrorIs(t, err, xerrors.ErrUsernameTaken)
}

func TestLoginRoundTrip(t *testing.T) {
	f := newLocalFixture(t)
	f.registerUser(t, "alice@example.com", "hunter2!")

	result, err := f.uc.Login(context.Background(), "alice@example.com", "hunter2!", "device-1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.False(t, result.IsFirstTimeLogin)
	assert.Equal(t, "alice@example.com", result.User.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newLocalFixture(t)
	f.registerUser(t, "alice@example.com", "hunter2!")

	_, err := f.uc.Login(context.Background(), "alice@example.com", "wrong", "device-1")
	assert.ErrorIs(t, err, xerrors.ErrInvalidCredentials)
}

func TestLoginUnknownEmailLooksLikeBadPassword(t *testing.T) {
	f := newLocalFixture(t)

	_, err := f.uc.Login(context.Background(), "ghost@example.com", "whatever", "device-1")
	assert.ErrorIs(t, err, xerrors.ErrInvalidCredentials)
}

func TestLoginPendingAccount(t *testing.T) {
	f := newLocalFixture(t)
	_, err := f.uc.SendEmailRegister(context.Background(), "pending@example.com")
	require.NoError(t, err)

	_, err = f.uc.Login(context.Background(), "pending@example.com", "whatever", "device-1")
	assert.ErrorIs(t, err, xerrors.ErrAccountNotActive)
}

func TestLoginSocialOnlyAccount(t *testing.T) {
	f := newLocalFixture(t)
	f.users.put(&domain.User{
		ID:     "u-social",
		Email:  "social@example.com",
		Status: domain.StatusActivated,
	})

	_, err := f.uc.Login(context.Background(), "social@example.com", "whatever", "device-1")
	assert.ErrorIs(t, err, xerrors.ErrSocialAccountOnly)
}

func TestLoginLockedOut(t *testing.T) {
	f := newLocalFixture(t)
	f.registerUser(t, "alice@example.com", "hunter2!")

	for i := 0; i < 5; i++ {
		require.NoError(t, f.activity.Create(context.Background(), &domain.UserActivityLog{
			Email:      "alice@example.com",
			Action:     domain.ActivityActionLogin,
			StatusCode: http.StatusUnauthorized,
			CreatedAt:  time.Now().Add(-time.Duration(i+1) * time.Minute),
		}))
	}

	// even the correct password is refused while locked
	_, err := f.uc.Login(context.Background(), "alice@example.com", "hunter2!", "device-1")

	var lockErr *xerrors.LockoutError
	require.ErrorAs(t, err, &lockErr)
	assert.ErrorIs(t, err, xerrors.ErrForbidden)
	assert.Greater(t, lockErr.RetryAfterSeconds, int64(0))
}

func TestPasswordResetRoundTrip(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()
	jwtGen := newTestJWT(t)
	f.registerUser(t, "alice@example.com", "old-pass!")

	v, err := f.uc.SendEmailResetPassword(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionResetPassword, v.Action)

	signed, err := jwtGen.SignVerification(v.UserID, v.Token, time.Hour)
	require.NoError(t, err)

	result, err := f.uc.VerifyEmail(ctx, signed, domain.ActionResetPassword)
	require.NoError(t, err)

	require.NoError(t, f.uc.ResetPassword(ctx, result.UserID, "new-pass!", "new-pass!"))

	_, err = f.uc.Login(ctx, "alice@example.com", "old-pass!", "device-1")
	assert.ErrorIs(t, err, xerrors.ErrInvalidCredentials)

	_, err = f.uc.Login(ctx, "alice@example.com", "new-pass!", "device-1")
	assert.NoError(t, err)
}

func TestSendEmailResetPasswordPendingAccount(t *testing.T) {
	f := newLocalFixture(t)
	_, err := f.uc.SendEmailRegister(context.Background(), "pending@example.com")
	require.NoError(t, err)

	_, err = f.uc.SendEmailResetPassword(context.Background(), "pending@example.com")
	assert.ErrorIs(t, err, xerrors.ErrAccountNotActive)
}

func TestDeleteAccountRoundTrip(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()
	jwtGen := newTestJWT(t)
	user := f.registerUser(t, "alice@example.com", "hunter2!")

	v, err := f.uc.SendEmailDeleteAccount(ctx, user.ID)
	require.NoError(t, err)

	signed, err := jwtGen.SignVerification(v.UserID, v.Token, time.Hour)
	require.NoError(t, err)

	require.NoError(t, f.uc.ConfirmDeleteAccount(ctx, signed))

	// the soft-deleted account no longer resolves, so login reads as
	// bad credentials
	_, err = f.uc.Login(ctx, "alice@example.com", "hunter2!", "device-1")
	assert.ErrorIs(t, err, xerrors.ErrInvalidCredentials)

	// the consumed token cannot delete twice
	err = f.uc.ConfirmDeleteAccount(ctx, signed)
	assert.ErrorIs(t, err, xerrors.ErrInvalidToken)
}
