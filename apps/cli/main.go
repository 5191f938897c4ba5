package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/zugate/teacherdash/apps/shared"
	"github.com/zugate/teacherdash/core"
	logsvc "github.com/zugate/teacherdash/services/logger"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "CLI : ", log.LstdFlags)

	conf := core.NewConfig()

	// the CLI only reports to rollbar; its own output goes to stdout
	appLogger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	defer appLogger.Close()

	app, err := shared.NewApp(context.Background(), conf, appLogger)
	errAndDie(err)

	cli := commandLine{
		out:  os.Stdout,
		sess: app.Session,
		auth: app.Client,
		ctrl: app.Dashboard,
	}
	err = cli.run(os.Args)
	_ = app.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("error: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
