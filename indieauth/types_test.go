package indieauth_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-indieauth-server/indieauth"
	"github.com/stretchr/testify/require"
)

func TestTokenResponse_FlattensProfile(t *testing.T) {
	resp := indieauth.TokenResponse{
		AccessToken: "abc",
		TokenType:   indieauth.TokenTypeBearer,
		Scope:       "profile",
		ExpiresIn:   60,
		Profile: indieauth.Profile{
			Me:      "https://example.com/",
			Profile: &indieauth.ProfileInfo{Name: "Operator"},
		},
	}

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"access_token": "abc",
		"token_type": "Bearer",
		"scope": "profile",
		"expires_in": 60,
		"me": "https://example.com/",
		"profile": {"name": "Operator"}
	}`, string(body))
}

func TestProfile_OmitsUnsetFields(t *testing.T) {
	body, err := json.Marshal(indieauth.Profile{Me: "https://example.com/"})
	require.NoError(t, err)
	require.JSONEq(t, `{"me": "https://example.com/"}`, string(body))

	body, err = json.Marshal(indieauth.ErrorResponse{Error: indieauth.ErrorInvalidGrant})
	require.NoError(t, err)
	require.JSONEq(t, `{"error": "invalid_grant"}`, string(body))
}
