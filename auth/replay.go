package auth

import (
	"context"

	apperrors "github.com/jrsteele09/go-indieauth-server/internal/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// remediateReplay handles a SessionReplayError: every session and token of
// the implicated identity is revoked and the incident logged. Other errors
// pass through unchanged. The original error is always returned.
func (as *AuthorizationService) remediateReplay(ctx context.Context, err error) error {
	var replay *apperrors.SessionReplayError
	if !apperrors.As(err, &replay) {
		return err
	}

	sessionsRevoked, sessionsErr := as.components.Guard.RevokeAllFor(ctx, replay.IdentityID)
	tokensRevoked, tokensErr := as.components.Tokens.RevokeAllFor(ctx, replay.IdentityID)

	trace.SpanFromContext(ctx).AddEvent("session replay detected", trace.WithAttributes(
		attribute.String(attrIdentityID, replay.IdentityID),
		attribute.Bool(attrIncident, true),
	))
	as.logger.Warn().
		Str("event", "security_incident").
		Str("identity_id", replay.IdentityID).
		Str("session_id", replay.SessionID).
		Int("sessions_revoked", sessionsRevoked).
		Int("tokens_revoked", tokensRevoked).
		Msg("session replay detected, sessions and tokens revoked")

	if sessionsErr != nil {
		as.logger.Error().Err(sessionsErr).Str("identity_id", replay.IdentityID).Msg("failed to revoke sessions after replay")
	}
	if tokensErr != nil {
		as.logger.Error().Err(tokensErr).Str("identity_id", replay.IdentityID).Msg("failed to revoke tokens after replay")
	}
	return err
}
