package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec() *Codec {
	return &Codec{
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func TestCodec_RoundTrip_AllKinds(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()

	kinds := []Kind{KindConfirmation, KindReset, KindAccess, KindRefresh}
	for _, kind := range kinds {
		kind := kind
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			token, err := codec.Issue(42, time.Hour, kind, "")
			require.NoError(t, err)
			require.NotEmpty(t, token)

			claims, err := codec.Verify(token, kind)
			require.NoError(t, err)

			userID, err := claims.UserID()
			require.NoError(t, err)
			assert.Equal(t, uint(42), userID)
			assert.Equal(t, kind, claims.Kind)
			assert.NotEmpty(t, claims.ID)
			require.NotNil(t, claims.ExpiresAt)
			assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
		})
	}
}

func TestCodec_AccessToken_CarriesRole(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()

	token, err := codec.Issue(7, time.Minute, KindAccess, "Administrator")
	require.NoError(t, err)

	claims, err := codec.Verify(token, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "Administrator", claims.Role)
}

func TestCodec_Verify_Expired(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()

	token, err := codec.Issue(42, -time.Second, KindAccess, "")
	require.NoError(t, err)

	claims, err := codec.Verify(token, KindAccess)
	require.Error(t, err)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestCodec_Verify_WrongSecret(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()
	other := &Codec{
		JWTSecret:     []byte("other-jwt-secret"),
		RefreshSecret: []byte("other-refresh-secret"),
	}

	token, err := codec.Issue(42, time.Hour, KindAccess, "")
	require.NoError(t, err)

	_, err = other.Verify(token, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodec_Verify_WrongKind(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()

	tests := []struct {
		name string
		have Kind
		want Kind
	}{
		{name: "access where refresh required", have: KindAccess, want: KindRefresh},
		{name: "refresh where access required", have: KindRefresh, want: KindAccess},
		{name: "confirmation where reset required", have: KindConfirmation, want: KindReset},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token, err := codec.Issue(42, time.Hour, tt.have, "")
			require.NoError(t, err)

			_, err = codec.Verify(token, tt.want)
			assert.ErrorIs(t, err, ErrWrongKind)
		})
	}
}

func TestCodec_Verify_Garbage(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := codec.Verify(raw, KindAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestCodec_Issue_FreshJTIPerToken(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		token, err := codec.Issue(42, time.Hour, KindRefresh, "")
		require.NoError(t, err)
		claims, err := codec.Verify(token, KindRefresh)
		require.NoError(t, err)
		require.False(t, seen[claims.ID], "jti reused")
		seen[claims.ID] = true
	}
}

func TestClaims_Remaining(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()

	token, err := codec.Issue(42, time.Hour, KindRefresh, "")
	require.NoError(t, err)
	claims, err := codec.Verify(token, KindRefresh)
	require.NoError(t, err)

	rem := claims.Remaining()
	assert.Greater(t, rem, 55*time.Minute)
	assert.LessOrEqual(t, rem, time.Hour)
}
