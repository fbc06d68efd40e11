package main

import (
	"log"
	"os"

	"github.com/learnspace/learnspace/clients/backend"
	"github.com/learnspace/learnspace/core"
	"github.com/learnspace/learnspace/core/access"
	"github.com/learnspace/learnspace/core/auth"
	"github.com/learnspace/learnspace/core/nav"
	"github.com/learnspace/learnspace/core/session"
	logsvc "github.com/learnspace/learnspace/services/logger"
	"github.com/learnspace/learnspace/storage/localdata"
)

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()

	stdLogger := log.New(os.Stdout, "LMS : ", log.LstdFlags)
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewConsoleLogger(stdLogger)
	} else {
		logger = logsvc.NewRollbarLogger(stdLogger, conf)
	}

	// set up the session store over the durable record file
	store := session.NewStore(localdata.NewFileStore(conf.Session.Path), logger)
	if err := store.StartWatch(); err != nil {
		// other processes' sign-ins won't be noticed live; not fatal
		logger.Warn("session watch unavailable", err)
	}
	defer store.StopWatch()

	presenter := nav.NewPresenter(store)
	defer presenter.Close()

	api := backend.NewClient(conf, logger)

	cli := commandLine{
		authSvc:   auth.NewService(api, store, logger),
		api:       api,
		store:     store,
		presenter: presenter,
		routes:    access.DefaultRoutes(),
		out:       os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			stdLogger.Printf("\nerror: %s\n", renderError(err))
		}
		os.Exit(1)
	}
}
