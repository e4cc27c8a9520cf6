package authgate

import (
	"context"

	"github.com/MrEthical07/authgate/token"
)

// Introspect is a terminal, best-effort query: it never returns an error.
// Any parse or validation failure, including a revoked refresh record,
// downgrades to an inactive result with every other field zeroed.
func (e *Engine) Introspect(ctx context.Context, tok string) IntrospectionResult {
	if e == nil {
		return IntrospectionResult{}
	}

	claims, err := e.codec.Parse(tok)
	if err != nil {
		e.metricInc(MetricIntrospectInactive)
		return IntrospectionResult{}
	}

	// Refresh tokens are only active while their server-side record is
	// live.
	if claims.TokenType == token.TypeRefresh {
		if _, err := e.registry.Validate(ctx, tok); err != nil {
			e.metricInc(MetricIntrospectInactive)
			return IntrospectionResult{}
		}
	}

	var expiresAt int64
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Unix()
	}

	e.metricInc(MetricIntrospectActive)
	return IntrospectionResult{
		Active:    true,
		Subject:   claims.Subject,
		TokenType: string(claims.TokenType),
		Email:     claims.Email,
		Roles:     append([]string(nil), claims.Roles...),
		ExpiresAt: expiresAt,
	}
}
