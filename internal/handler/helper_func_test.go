package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"account-service/pkg/response"
	xerrors "account-service/pkg/utils/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{xerrors.ErrPasswordMismatch, http.StatusBadRequest},
		{xerrors.ErrEmailRequired, http.StatusBadRequest},
		{xerrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{xerrors.ErrInvalidToken, http.StatusUnauthorized},
		{xerrors.ErrExpiredToken, http.StatusUnauthorized},
		{xerrors.ErrSocialAccountOnly, http.StatusUnauthorized},
		{xerrors.ErrProviderMismatch, http.StatusUnauthorized},
		{xerrors.ErrAccountDeactivated, http.StatusForbidden},
		{xerrors.ErrUserNotFound, http.StatusNotFound},
		{xerrors.ErrSessionNotFound, http.StatusNotFound},
		{xerrors.ErrUserAlreadyExists, http.StatusConflict},
		{xerrors.ErrUsernameTaken, http.StatusConflict},
		{xerrors.ErrAccountNotActive, http.StatusConflict},
		{&xerrors.LockoutError{RetryAfterSeconds: 60}, http.StatusForbidden},
		{&xerrors.SessionExpiredError{}, response.StatusSessionExpired},
		// wrapped sentinels classify the same as bare ones
		{fmt.Errorf("login: %w", xerrors.ErrInvalidCredentials), http.StatusUnauthorized},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		status, _ := statusForError(tc.err)
		assert.Equal(t, tc.want, status, "error %v", tc.err)
	}
}

func TestWriteErrorLockoutPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &xerrors.LockoutError{RetryAfterSeconds: 123})

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body response.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)

	data, ok := body.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 123, data["retry_after_seconds"])
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, fmt.Errorf("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.RemoteAddr = "10.0.0.1:54321"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "203.0.113.9", clientIP(r))
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.RemoteAddr = "10.0.0.1:54321"

	assert.Equal(t, "10.0.0.1", clientIP(r))
}
