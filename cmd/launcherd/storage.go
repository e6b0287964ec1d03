package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/noriskclient/launcherd/internal/common/config"
	"github.com/noriskclient/launcherd/internal/common/logger"
	"github.com/noriskclient/launcherd/internal/db"
	"github.com/noriskclient/launcherd/internal/profile/repository"
)

func provideRepository(cfg *config.Config, log *logger.Logger) (repository.Repository, func() error, error) {
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s database: %w", cfg.Database.Driver, err)
	}
	if conn == nil {
		log.Info("Using in-memory profile store")
		repo := repository.NewMemoryRepository()
		return repo, repo.Close, nil
	}

	repo, err := repository.NewSQLRepository(conn)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("init profile store: %w", err)
	}
	log.Info("Using SQL profile store", zap.String("driver", cfg.Database.Driver))
	return repo, repo.Close, nil
}
