package microservices

import (
	"github.com/hoblink/hoblink-backend/config"
	"github.com/hoblink/hoblink-backend/internal/adapter/postgres"
	"github.com/hoblink/hoblink-backend/internal/service/session"
	"github.com/hoblink/hoblink-backend/pkg/logger"
	postgresclient "github.com/hoblink/hoblink-backend/pkg/postgres"
	"github.com/hoblink/hoblink-backend/pkg/trm"
)

// newSessionStore builds the auth stack every mode mounts for token
// validation; only the session service exposes its write endpoints.
func newSessionStore(db *postgresclient.PostgreDB, cfg *config.Config, log logger.Logger) *session.Store {
	profileRepo := postgres.NewProfileRepo(db.Pool)
	refreshRepo := postgres.NewRefreshTokenRepo(db.Pool)

	tokenSvc := session.NewTokenService(
		cfg.Auth.JWTSecret,
		profileRepo,
		refreshRepo,
		trm.New(db.Pool),
		cfg.Auth.RefreshTokenTTL,
		cfg.Auth.AccessTokenTTL,
		log,
	)

	return session.NewStore(
		profileRepo,
		refreshRepo,
		tokenSvc,
		cfg.Auth.AdminEmailList(),
		cfg.Auth.ProfileReadRetries,
		log,
	)
}
