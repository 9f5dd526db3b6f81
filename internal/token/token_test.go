package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate/internal/shared"
	"github.com/keygate/keygate/internal/token"
	_ "github.com/keygate/keygate/testing"
)

func TestIssueValidateRoundtrip(t *testing.T) {
	issuer := token.NewIssuer("test-secret", time.Hour)

	raw, err := issuer.Issue(42)
	require.NoError(t, err)

	claims, err := issuer.Validate(raw)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.NotEmpty(t, claims.TokenID)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestValidateExpiredToken(t *testing.T) {
	issuer := token.NewIssuer("test-secret", -time.Minute)

	raw, err := issuer.Issue(42)
	require.NoError(t, err)

	_, err = issuer.Validate(raw)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	raw, err := token.NewIssuer("secret-a", time.Hour).Issue(42)
	require.NoError(t, err)

	_, err = token.NewIssuer("secret-b", time.Hour).Validate(raw)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	issuer := token.NewIssuer("test-secret", time.Hour)
	raw, err := issuer.Issue(42)
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err = issuer.Validate(tampered)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	issuer := token.NewIssuer("test-secret", time.Hour)
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Validate(raw)
		require.ErrorIs(t, err, shared.ErrInvalidToken, "input %q", raw)
	}
}

func TestTokensCarryDistinctIDs(t *testing.T) {
	issuer := token.NewIssuer("test-secret", time.Hour)

	first, err := issuer.Issue(1)
	require.NoError(t, err)
	second, err := issuer.Issue(1)
	require.NoError(t, err)

	firstClaims, err := issuer.Validate(first)
	require.NoError(t, err)
	secondClaims, err := issuer.Validate(second)
	require.NoError(t, err)
	require.NotEqual(t, firstClaims.TokenID, secondClaims.TokenID)
}
