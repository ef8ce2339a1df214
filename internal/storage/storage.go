// Package storage selects the document store backend the agent runs against.
package storage

import (
	"context"
	"fmt"

	"github.com/jonathan/training-dashboard/internal/aggregation"
	"github.com/jonathan/training-dashboard/internal/config"
	"github.com/jonathan/training-dashboard/internal/db"
	"github.com/jonathan/training-dashboard/internal/mongodb"
	"github.com/jonathan/training-dashboard/internal/types"
)

// Backend is a store the aggregation job can read from and write to, plus
// the read side used by the status server and the summary command.
type Backend interface {
	aggregation.Store
	GetSummary(ctx context.Context) (*types.DashboardSummary, error)
	Close(ctx context.Context) error
}

// Open connects to the backend named in cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendMongoDB:
		store, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, mongodb.Collections{
			Courses:      cfg.Collections.Courses,
			Participants: cfg.Collections.Participants,
			Dashboard:    cfg.Collections.Dashboard,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendPostgres:
		database, err := db.Connect(ctx, cfg.DatabaseURL, db.Tables{
			Courses:      cfg.Collections.Courses,
			Participants: cfg.Collections.Participants,
			Dashboard:    cfg.Collections.Dashboard,
		})
		if err != nil {
			return nil, err
		}
		return &postgresBackend{DB: database}, nil

	case config.BackendMemory:
		store := NewMemoryStore()
		if cfg.SeedFile != "" {
			if err := store.LoadSeedFile(cfg.SeedFile); err != nil {
				return nil, err
			}
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// postgresBackend adapts db.DB's pool-style Close to Backend.
type postgresBackend struct {
	*db.DB
}

func (p *postgresBackend) Close(context.Context) error {
	p.DB.Close()
	return nil
}
