package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/taqyimhq/taqyim/apps/api/echo"
	"github.com/taqyimhq/taqyim/core"
	"github.com/taqyimhq/taqyim/core/center"
	"github.com/taqyimhq/taqyim/core/dashboard"
	"github.com/taqyimhq/taqyim/core/evaluation"
	"github.com/taqyimhq/taqyim/core/form"
	"github.com/taqyimhq/taqyim/core/user"
	emailsvc "github.com/taqyimhq/taqyim/services/email"
	logsvc "github.com/taqyimhq/taqyim/services/logger"
	"github.com/taqyimhq/taqyim/storage/database"
	sqlxrepos "github.com/taqyimhq/taqyim/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	// set up logger
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()
	xdb := sqlx.NewDb(db, conf.Database.Engine)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(xdb), mailSvc)
	cenSvc := center.NewService(sqlxrepos.NewCenterRepository(xdb))
	frmSvc := form.NewService(sqlxrepos.NewFormRepository(xdb))
	evalSvc := evaluation.NewService(sqlxrepos.NewEvaluationRepository(xdb), frmSvc)
	dashSvc := dashboard.NewService(sqlxrepos.NewDashboardRepository(xdb), frmSvc, evalSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidators()
	user.RegisterValidators(validate, translator)
	form.RegisterValidators(validate, translator)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Address:       fmt.Sprintf("%s:%d", conf.Server.Host, conf.Server.Port),
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       usrSvc,
		CenterSvc:     cenSvc,
		FormSvc:       frmSvc,
		EvaluationSvc: evalSvc,
		DashboardSvc:  dashSvc,
	})

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

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
