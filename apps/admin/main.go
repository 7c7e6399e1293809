package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/jhsobrinho/educareapp-sub009/core"
	"github.com/jhsobrinho/educareapp-sub009/core/journey"
	logsvc "github.com/jhsobrinho/educareapp-sub009/services/logger"
	rediscache "github.com/jhsobrinho/educareapp-sub009/storage/cache/redis"
	"github.com/jhsobrinho/educareapp-sub009/storage/database"
	sqlxrepos "github.com/jhsobrinho/educareapp-sub009/storage/database/sqlx"
)

func main() {
	os.Exit(run())
}

func run() int {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Error(fmt.Sprintf("creating database: %v", err), err)
		return 1
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Error(fmt.Sprintf("opening database: %v", err), err)
		return 1
	}
	defer func() { _ = db.Close() }()
	xdb := sqlxrepos.NewDB(db)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	journey.InitValidators(validate, translator)

	// the API's question cache must not outlive a reseed
	var cache journey.QuestionCache = journey.NopCache{}
	if conf.Cache.RedisURL != "" {
		rdb, err := rediscache.Open(context.Background(), conf)
		if err != nil {
			logger.Error(fmt.Sprintf("opening cache: %v", err), err)
			return 1
		}
		defer func() { _ = rdb.Close() }()
		cache = rediscache.NewQuestionCache(rdb, conf.Cache.QuestionTTL)
	}

	// start CLI
	cli := commandLine{
		db:       db,
		usrRepo:  sqlxrepos.NewUserRepository(xdb),
		bank:     journey.NewBank(sqlxrepos.NewQuestionRepository(xdb), cache, logger),
		validate: validate,
	}
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err), err)
		}
		return 1
	}
	return 0
}
