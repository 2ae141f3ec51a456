package sessions

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const rememberIssuer = "indieauth-session"

// rememberClaims is the payload of a remember-me token.
type rememberClaims struct {
	SessionID  string
	IdentityID string
}

// rememberSigner signs and parses HS256 remember-me tokens.
type rememberSigner struct {
	secret  []byte
	nowFunc func() time.Time
}

func (s *rememberSigner) sign(session *Session) (string, error) {
	claims := jwtlib.MapClaims{
		"iss": rememberIssuer,
		"sid": session.ID,
		"sub": session.IdentityID,
		"iat": session.CreatedAt.Unix(),
		"exp": session.ExpiresAt.Unix(),
		"jti": uuid.NewString(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "[rememberSigner.sign] SignedString")
	}
	return signed, nil
}

func (s *rememberSigner) parse(token string) (*rememberClaims, error) {
	parsed, err := jwtlib.Parse(token, func(t *jwtlib.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(rememberIssuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.nowFunc),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[rememberSigner.parse] Parse")
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("[rememberSigner.parse] unexpected claims type")
	}
	sid, _ := claims["sid"].(string)
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, errors.Wrap(err, "[rememberSigner.parse] GetSubject")
	}
	if sid == "" || sub == "" {
		return nil, errors.New("[rememberSigner.parse] sid and sub are required")
	}
	return &rememberClaims{SessionID: sid, IdentityID: sub}, nil
}
