package auth

import "context"

// Observer receives lifecycle notifications from the orchestrator:
// registration and login outcomes, token rotation, and revocation. Fields
// never carry secrets or raw token values. A nil observer disables
// notification; observers must not block.
type Observer func(ctx context.Context, event string, fields map[string]any)

// Lifecycle event names passed to an Observer.
const (
	EventRegisterSuccess = "auth.register.success"
	EventRegisterDenied  = "auth.register.denied"
	EventLoginSuccess    = "auth.login.success"
	EventLoginDenied     = "auth.login.denied"
	EventTokenRotated    = "auth.token.rotated"
	EventTokenRevoked    = "auth.token.revoked"
	EventTokenDenied     = "auth.token.denied"
)

func (s *Service) observe(ctx context.Context, event string, fields map[string]any) {
	if s.observer == nil {
		return
	}
	s.observer(ctx, event, fields)
}
