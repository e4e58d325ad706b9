package main

import (
	"log"
	"os"

	"github.com/trezcool/ukuaji/core"
	logsvc "github.com/trezcool/ukuaji/services/logger"
	"github.com/trezcool/ukuaji/storage/database"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "IMPORTER : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(conf.Env == "PROD")

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(database.Ping(db.DB))

	// start CLI
	cli := commandLine{
		conf:   conf,
		db:     db,
		logger: appLogger,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
