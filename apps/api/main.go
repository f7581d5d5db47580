package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/myfeedback/apps/api/echo"
	"github.com/trezcool/myfeedback/core"
	"github.com/trezcool/myfeedback/core/feedback"
	logsvc "github.com/trezcool/myfeedback/services/logger"
	"github.com/trezcool/myfeedback/storage/database"
	sqlxrepos "github.com/trezcool/myfeedback/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	zl := logsvc.NewZapLogger(conf)
	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	dbLogger := logsvc.NewRollbarLogger(zl.Named("db"), conf)
	defer func() { _ = logger.Sync() }()

	// set up DB
	db, err := database.Setup(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	pdb := sqlxrepos.NewDB(db, conf.Database.Prefix)
	feedbackSvc := feedback.NewService(
		sqlxrepos.NewFeedbackRepository(pdb),
		sqlxrepos.NewPlatform(pdb, conf.Platform.WWWRoot),
		sqlxrepos.NewAssessors(pdb, conf.Platform.WWWRoot),
		logger,
		feedback.NewOptions(conf),
	)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	feedback.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			FeedbackSvc: feedbackSvc,
			Validate:    validate,
			Translator:  translator,
		},
	)

	go func() {
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

