package pgstore

import (
	"time"

	"github.com/jrsteele09/go-indieauth-server/requests"
	"github.com/jrsteele09/go-indieauth-server/sessions"
	"github.com/jrsteele09/go-indieauth-server/token"
)

// requestModel carries a unique (identity_id, client_id) index so at most
// one live request exists per pair.
type requestModel struct {
	Code          string `gorm:"primaryKey"`
	IdentityID    string `gorm:"not null;uniqueIndex:idx_request_pair"`
	ClientID      string `gorm:"not null;uniqueIndex:idx_request_pair"`
	RedirectURI   string `gorm:"not null"`
	Scope         string
	CodeChallenge string
	CreatedAt     time.Time
}

func (requestModel) TableName() string { return "authorization_requests" }

func newRequestModel(r *requests.AuthorizationRequest) *requestModel {
	return &requestModel{
		Code:          r.Code,
		IdentityID:    r.IdentityID,
		ClientID:      r.ClientID,
		RedirectURI:   r.RedirectURI,
		Scope:         r.Scope,
		CodeChallenge: r.CodeChallenge,
		CreatedAt:     r.CreatedAt,
	}
}

func (m *requestModel) toRequest() *requests.AuthorizationRequest {
	return &requests.AuthorizationRequest{
		Code:          m.Code,
		ClientID:      m.ClientID,
		RedirectURI:   m.RedirectURI,
		Scope:         m.Scope,
		IdentityID:    m.IdentityID,
		CodeChallenge: m.CodeChallenge,
		CreatedAt:     m.CreatedAt.UTC(),
	}
}

type tokenModel struct {
	AuthToken  string `gorm:"primaryKey"`
	IdentityID string `gorm:"not null;index"`
	ClientID   string `gorm:"not null"`
	Scope      string `gorm:"not null"`
	IssuedAt   time.Time
}

func (tokenModel) TableName() string { return "access_tokens" }

func newTokenModel(t *token.AccessToken) *tokenModel {
	return &tokenModel{
		AuthToken:  t.AuthToken,
		IdentityID: t.IdentityID,
		ClientID:   t.ClientID,
		Scope:      t.Scope,
		IssuedAt:   t.IssuedAt,
	}
}

func (m *tokenModel) toToken() *token.AccessToken {
	return &token.AccessToken{
		AuthToken:  m.AuthToken,
		IdentityID: m.IdentityID,
		ClientID:   m.ClientID,
		Scope:      m.Scope,
		IssuedAt:   m.IssuedAt.UTC(),
	}
}

type sessionModel struct {
	ID         string `gorm:"primaryKey"`
	IdentityID string `gorm:"not null;index"`
	CreatedAt  time.Time
	ExpiresAt  time.Time `gorm:"index"`
}

func (sessionModel) TableName() string { return "sessions" }

func newSessionModel(s *sessions.Session) *sessionModel {
	return &sessionModel{
		ID:         s.ID,
		IdentityID: s.IdentityID,
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  s.ExpiresAt,
	}
}

func (m *sessionModel) toSession() *sessions.Session {
	return &sessions.Session{
		ID:         m.ID,
		IdentityID: m.IdentityID,
		CreatedAt:  m.CreatedAt.UTC(),
		ExpiresAt:  m.ExpiresAt.UTC(),
	}
}

type pendingModel struct {
	SessionID     string `gorm:"primaryKey"`
	IdentityID    string `gorm:"not null;index"`
	ClientID      string
	State         string
	CodeChallenge string
	CreatedAt     time.Time
}

func (pendingModel) TableName() string { return "pending_authorizations" }

func newPendingModel(p *sessions.PendingAuthorization) *pendingModel {
	return &pendingModel{
		SessionID:     p.SessionID,
		IdentityID:    p.IdentityID,
		ClientID:      p.ClientID,
		State:         p.State,
		CodeChallenge: p.CodeChallenge,
		CreatedAt:     p.CreatedAt,
	}
}

func (m *pendingModel) toPending() *sessions.PendingAuthorization {
	return &sessions.PendingAuthorization{
		SessionID:     m.SessionID,
		IdentityID:    m.IdentityID,
		ClientID:      m.ClientID,
		State:         m.State,
		CodeChallenge: m.CodeChallenge,
		CreatedAt:     m.CreatedAt.UTC(),
	}
}
