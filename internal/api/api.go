package api

import (
	"database/sql"

	"github.com/khadijabh/cafe-store/internal/config"
	"go.uber.org/zap"
)

// API holds the handlers' shared dependencies. Every handler resolves the
// acting user from the request context; nothing reads ambient auth state.
type API struct {
	DB     *sql.DB
	Cfg    *config.Config
	Logger *zap.Logger
}
