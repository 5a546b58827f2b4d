package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"megastore/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetPasswordHappyPath(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.register(t, "ann@example.com", "Passw0rd!")
	sess, err := e.sessions.Login(ctx, "ann@example.com", "Passw0rd!")
	require.NoError(t, err)

	require.NoError(t, e.pw.RequestReset(ctx, "ann@example.com", baseURL))
	secret := linkToken(t, e.mail.last(t))

	u, err := e.users.ByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, u.ResetTokenHash.Valid)
	assert.NotEqual(t, secret, u.ResetTokenHash.String)

	require.NoError(t, e.pw.ResetPassword(ctx, secret, "N3w!pass", "N3w!pass"))

	u, err = e.users.ByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, u.ResetTokenHash.Valid)
	assert.False(t, u.ResetExpire.Valid)

	_, err = e.sessions.Login(ctx, "ann@example.com", "N3w!pass")
	assert.NoError(t, err)
	_, err = e.sessions.Refresh(ctx, sess.RefreshToken)
	requireKind(t, err, apperr.Unauthorized)

	err = e.pw.ResetPassword(ctx, secret, "Again1!x", "Again1!x")
	requireKind(t, err, apperr.NotFound)
}

func TestResetPasswordExpired(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "ann@example.com", "Passw0rd!")
	require.NoError(t, e.pw.RequestReset(ctx, "ann@example.com", baseURL))
	secret := linkToken(t, e.mail.last(t))

	e.pw.Now = func() time.Time { return time.Now().Add(16 * time.Minute) }
	err := e.pw.ResetPassword(ctx, secret, "N3w!pass", "N3w!pass")
	requireKind(t, err, apperr.NotFound)
}

func TestResetPasswordMismatch(t *testing.T) {
	e := newEnv(t)
	err := e.pw.ResetPassword(context.Background(), "whatever", "N3w!pass", "other")
	requireKind(t, err, apperr.Invalid)
}

func TestSecondForgotPasswordOverwritesFirst(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "ann@example.com", "Passw0rd!")

	require.NoError(t, e.pw.RequestReset(ctx, "ann@example.com", baseURL))
	first := linkToken(t, e.mail.last(t))
	require.NoError(t, e.pw.RequestReset(ctx, "ann@example.com", baseURL))
	second := linkToken(t, e.mail.last(t))
	require.NotEqual(t, first, second)

	err := e.pw.ResetPassword(ctx, first, "N3w!pass", "N3w!pass")
	requireKind(t, err, apperr.NotFound)
	require.NoError(t, e.pw.ResetPassword(ctx, second, "N3w!pass", "N3w!pass"))
}

func TestRequestResetRollsBackOnNotifierFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.register(t, "ann@example.com", "Passw0rd!")
	e.mail.err = errors.New("smtp down")

	err := e.pw.RequestReset(ctx, "ann@example.com", baseURL)
	requireKind(t, err, apperr.Invalid)

	u, err := e.users.ByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, u.ResetTokenHash.Valid)
	assert.False(t, u.ResetExpire.Valid)
}

func TestRequestResetUnknownEmail(t *testing.T) {
	e := newEnv(t)
	err := e.pw.RequestReset(context.Background(), "ghost@example.com", baseURL)
	requireKind(t, err, apperr.NotFound)
	assert.Empty(t, e.mail.sent)
}

func TestChangePasswordMismatchLeavesHash(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.register(t, "ann@example.com", "Passw0rd!")
	before, err := e.users.ByID(ctx, id)
	require.NoError(t, err)

	err = e.pw.ChangePassword(ctx, id, "Passw0rd!", "N3w!pass", "N3w!pasz")
	requireKind(t, err, apperr.BadRequest)

	after, err := e.users.ByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.register(t, "ann@example.com", "Passw0rd!")

	err := e.pw.ChangePassword(ctx, id, "wrong", "N3w!pass", "N3w!pass")
	requireKind(t, err, apperr.Unauthorized)

	require.NoError(t, e.pw.ChangePassword(ctx, id, "Passw0rd!", "N3w!pass", "N3w!pass"))
	_, err = e.sessions.Login(ctx, "ann@example.com", "N3w!pass")
	assert.NoError(t, err)
	_, err = e.sessions.Login(ctx, "ann@example.com", "Passw0rd!")
	requireKind(t, err, apperr.Unauthorized)
}

func TestEmptyNewPasswordRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.register(t, "ann@example.com", "Passw0rd!")
	sess, err := e.sessions.Login(ctx, "ann@example.com", "Passw0rd!")
	require.NoError(t, err)
	require.NoError(t, e.pw.RequestReset(ctx, "ann@example.com", baseURL))
	secret := linkToken(t, e.mail.last(t))
	before, err := e.users.ByID(ctx, id)
	require.NoError(t, err)

	requireKind(t, e.pw.ChangePassword(ctx, id, "Passw0rd!", "", ""), apperr.BadRequest)
	requireKind(t, e.pw.ResetPassword(ctx, secret, "", ""), apperr.BadRequest)

	after, err := e.users.ByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.True(t, after.ResetTokenHash.Valid)

	// the secret and the session survive the rejected reset
	_, err = e.sessions.Refresh(ctx, sess.RefreshToken)
	assert.NoError(t, err)
	require.NoError(t, e.pw.ResetPassword(ctx, secret, "N3w!pass", "N3w!pass"))
}
