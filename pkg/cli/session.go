package cli

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mkarri/pgsession"
	"github.com/mkarri/pgsession/internal/logger"
	"github.com/mkarri/pgsession/pkg/config"
)

// openSession loads the environment config, connects a session and returns
// it together with the CLI logger. The caller owns Close.
func openSession(ctx context.Context) (*pgsession.Session, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	sess := pgsession.New(cfg.Database, log)
	if err := sess.Connect(ctx); err != nil {
		return nil, log, err
	}
	return sess, log, nil
}
