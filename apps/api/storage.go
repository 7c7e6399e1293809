package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhsobrinho/educareapp-sub009/core"
	"github.com/jhsobrinho/educareapp-sub009/core/child"
	"github.com/jhsobrinho/educareapp-sub009/core/invitation"
	"github.com/jhsobrinho/educareapp-sub009/core/journey"
	"github.com/jhsobrinho/educareapp-sub009/core/user"
	rediscache "github.com/jhsobrinho/educareapp-sub009/storage/cache/redis"
	"github.com/jhsobrinho/educareapp-sub009/storage/database"
	inmemdb "github.com/jhsobrinho/educareapp-sub009/storage/database/inmem"
	boiledrepos "github.com/jhsobrinho/educareapp-sub009/storage/database/sqlboiler"
	sqlxrepos "github.com/jhsobrinho/educareapp-sub009/storage/database/sqlx"
)

// storage holds the repositories of the configured backend.
type storage struct {
	users         user.Repository
	children      child.Repository
	questions     journey.QuestionRepository
	questionCache journey.QuestionCache
	sessions      journey.SessionRepository
	reports       journey.ReportRepository
	invitations   invitation.Repository

	db  *sql.DB
	rdb *goredis.Client
}

func openStorage(ctx context.Context, conf *core.Config, logger core.Logger) (*storage, error) {
	s := &storage{questionCache: journey.NopCache{}}

	switch conf.Storage {
	case core.StorageMemory:
		logger.Info("using the in-memory store; data is lost on restart")
		db := inmemdb.Open()
		s.users = inmemdb.NewUserRepository(db)
		s.children = inmemdb.NewChildRepository(db)
		s.questions = inmemdb.NewQuestionRepository(db)
		s.sessions = inmemdb.NewSessionRepository(db)
		s.reports = inmemdb.NewReportRepository(db)
		s.invitations = inmemdb.NewInvitationRepository(db)

	case core.StoragePostgres:
		db, err := setUpDB(conf)
		if err != nil {
			return nil, errors.Wrap(err, "setting up database")
		}
		s.db = db
		xdb := sqlxrepos.NewDB(db)
		s.users = sqlxrepos.NewUserRepository(xdb)
		s.children = sqlxrepos.NewChildRepository(xdb)
		s.questions = sqlxrepos.NewQuestionRepository(xdb)
		s.sessions = sqlxrepos.NewSessionRepository(xdb)
		s.reports = boiledrepos.NewReportRepository(db)
		s.invitations = sqlxrepos.NewInvitationRepository(xdb)

	default:
		return nil, errors.Errorf("unknown storage %q", conf.Storage)
	}

	if conf.Cache.RedisURL != "" {
		rdb, err := rediscache.Open(ctx, conf)
		if err != nil {
			_ = s.Close()
			return nil, errors.Wrap(err, "setting up cache")
		}
		s.rdb = rdb
		s.questionCache = rediscache.NewQuestionCache(rdb, conf.Cache.QuestionTTL)
		logger.Info(fmt.Sprintf("caching the question bank on redis for %v", conf.Cache.QuestionTTL))
	}
	return s, nil
}

func (s *storage) Close() error {
	var err error
	if s.rdb != nil {
		err = s.rdb.Close()
	}
	if s.db != nil {
		if dbErr := s.db.Close(); dbErr != nil {
			err = dbErr
		}
	}
	return err
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
