package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer() *Issuer {
	return NewIssuer(IssuerConfig{
		Access:     KeyConfig{Secret: "access-secret", TTL: 15 * time.Minute},
		Refresh:    KeyConfig{Secret: "refresh-secret", TTL: 7 * 24 * time.Hour},
		Activation: KeyConfig{Secret: "activation-secret"},
	})
}

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	var te *TokenError
	require.True(t, errors.As(err, &te), "expected *TokenError, got %v", err)
	return te.Reason
}

func TestAccessRoundTrip(t *testing.T) {
	iss := testIssuer()
	tok, err := iss.IssueAccess("u-1", "ann@example.com", "Ann")
	require.NoError(t, err)

	claims, err := iss.VerifyAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, "Ann", claims.FullName)
	assert.NotEmpty(t, claims.ID)
}

func TestTokensIssuedInSameSecondDiffer(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	iss := testIssuer().WithClock(func() time.Time { return fixed })

	a, err := iss.IssueRefresh("u-1")
	require.NoError(t, err)
	b, err := iss.IssueRefresh("u-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyExpired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	old := testIssuer().WithClock(func() time.Time { return past })
	tok, err := old.IssueAccess("u-1", "a@b.c", "A")
	require.NoError(t, err)

	_, err = testIssuer().VerifyAccess(tok)
	require.Error(t, err)
	assert.Equal(t, ReasonExpired, reasonOf(t, err))
	assert.True(t, IsExpired(err))
}

func TestVerifyWrongSecret(t *testing.T) {
	tok, err := testIssuer().IssueRefresh("u-1")
	require.NoError(t, err)

	other := NewIssuer(IssuerConfig{Refresh: KeyConfig{Secret: "other", TTL: time.Hour}})
	_, err = other.VerifyRefresh(tok)
	require.Error(t, err)
	assert.Equal(t, ReasonSignatureMismatch, reasonOf(t, err))
}

func TestVerifyMalformed(t *testing.T) {
	iss := testIssuer()
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := iss.VerifyAccess(tok)
		require.Error(t, err, tok)
		assert.Equal(t, ReasonMalformed, reasonOf(t, err), tok)
	}
}

func TestKindsDoNotCrossVerify(t *testing.T) {
	shared := KeyConfig{Secret: "same", TTL: time.Hour}
	iss := NewIssuer(IssuerConfig{Access: shared, Refresh: shared, Activation: shared})

	refresh, err := iss.IssueRefresh("u-1")
	require.NoError(t, err)
	_, err = iss.VerifyAccess(refresh)
	assert.Error(t, err)

	access, err := iss.IssueAccess("u-1", "a@b.c", "A")
	require.NoError(t, err)
	_, err = iss.VerifyActivation(access)
	assert.Error(t, err)
}

func TestKeyUnset(t *testing.T) {
	iss := NewIssuer(IssuerConfig{Access: KeyConfig{TTL: time.Minute}})
	_, err := iss.IssueAccess("u-1", "a@b.c", "A")
	assert.Equal(t, ReasonKeyUnset, reasonOf(t, err))

	_, err = iss.VerifyRefresh("x.y.z")
	assert.Equal(t, ReasonKeyUnset, reasonOf(t, err))
}

func TestActivationCarriesPendingUser(t *testing.T) {
	iss := testIssuer()
	p := PendingUser{FullName: "Ann", Email: "ann@example.com", PasswordHash: "$2a$10$x", AvatarRef: "staged.png"}
	tok, err := iss.IssueActivation(p)
	require.NoError(t, err)

	got, err := iss.VerifyActivation(tok)
	require.NoError(t, err)
	assert.Equal(t, p, *got)
}

func TestActivationExpiresAfterFiveMinutes(t *testing.T) {
	start := time.Now()
	iss := testIssuer().WithClock(func() time.Time { return start })
	tok, err := iss.IssueActivation(PendingUser{Email: "a@b.c"})
	require.NoError(t, err)

	later := iss.WithClock(func() time.Time { return start.Add(ActivationTTL + time.Second) })
	_, err = later.VerifyActivation(tok)
	assert.True(t, IsExpired(err))
}

func TestIssueReset(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	iss := testIssuer().WithClock(func() time.Time { return now })

	rs, err := iss.IssueReset()
	require.NoError(t, err)
	assert.Len(t, rs.Secret, 40)
	assert.Equal(t, HashResetSecret(rs.Secret), rs.Hash)
	assert.NotEqual(t, rs.Secret, rs.Hash)
	assert.Equal(t, now.Add(15*time.Minute), rs.ExpiresAt)
	assert.Equal(t, strings.ToLower(rs.Secret), rs.Secret)

	other, err := iss.IssueReset()
	require.NoError(t, err)
	assert.NotEqual(t, rs.Secret, other.Secret)
}
