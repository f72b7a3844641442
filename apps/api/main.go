package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/ekklesia/apps/api/echo"
	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/finance"
	"github.com/trezcool/ekklesia/core/member"
	"github.com/trezcool/ekklesia/core/schedule"
	"github.com/trezcool/ekklesia/core/song"
	"github.com/trezcool/ekklesia/core/user"
	emailsvc "github.com/trezcool/ekklesia/services/email"
	logsvc "github.com/trezcool/ekklesia/services/logger"
	metricsvc "github.com/trezcool/ekklesia/services/metrics"
	"github.com/trezcool/ekklesia/storage/database"
	sqlxrepos "github.com/trezcool/ekklesia/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(os.Stdout, conf)

	// set up DB
	db, err := setUpDB(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	metrics := metricsvc.New()

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db))
	memberSvc := member.NewService(sqlxrepos.NewMemberRepository(db))
	songSvc := song.NewService(sqlxrepos.NewSongRepository(db))
	scheduleSvc := schedule.NewService(schedule.Deps{
		Repo:     sqlxrepos.NewScheduleRepository(db),
		Members:  memberSvc,
		Songs:    songSvc,
		MailSvc:  mailSvc,
		Observer: metrics,
		AppName:  conf.AppName,
	})
	financeSvc := finance.NewService(sqlxrepos.NewFinanceRepository(db), core.NewLocale(conf.Locale))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator(user.RegisterValidators, schedule.RegisterValidators, finance.RegisterValidators)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	if conf.Server.DebugAddr != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugAddr, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		Metrics:     metrics,
		UserSvc:     usrSvc,
		MemberSvc:   memberSvc,
		SongSvc:     songSvc,
		ScheduleSvc: scheduleSvc,
		FinanceSvc:  financeSvc,
		Validate:    validate,
		Translator:  translator,
	})

	go func() {
		logger.Info("API listening on " + conf.Server.Addr)
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config, logger core.Logger) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(context.Background(), db, database.GooseLogger(logger)); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
