package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/myfeedback/core"
	"github.com/trezcool/myfeedback/core/feedback"
	appfs "github.com/trezcool/myfeedback/fs"
	emailsvc "github.com/trezcool/myfeedback/services/email"
	logsvc "github.com/trezcool/myfeedback/services/logger"
	"github.com/trezcool/myfeedback/storage/database"
	sqlxrepos "github.com/trezcool/myfeedback/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl := logsvc.NewZapLogger(conf).Named("admin")
	logger := logsvc.NewRollbarLogger(zl, conf)
	defer func() { _ = logger.Sync() }()

	// set up DB
	if provisions(os.Args) {
		if err := database.CreateIfNotExist(conf); err != nil {
			logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
		}
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() { _ = db.Close() }()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, os.Stdout)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf)
	}
	if err := core.ParseEmailTemplates(appfs.FS); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		conf:    conf,
		db:      db,
		svc:     newFeedbackService(db, conf, logger),
		mailSvc: mailSvc,
		out:     os.Stdout,
	}
	if err := cli.run(context.Background(), os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		_ = logger.Sync()
		os.Exit(1)
	}
}

func newFeedbackService(db *sqlx.DB, conf *core.Config, logger core.Logger) feedback.Service {
	pdb := sqlxrepos.NewDB(db, conf.Database.Prefix)
	return feedback.NewService(
		sqlxrepos.NewFeedbackRepository(pdb),
		sqlxrepos.NewPlatform(pdb, conf.Platform.WWWRoot),
		sqlxrepos.NewAssessors(pdb, conf.Platform.WWWRoot),
		logger,
		feedback.NewOptions(conf),
	)
}
