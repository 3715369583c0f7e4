package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/trezcool/perftracker/core"
	logsvc "github.com/trezcool/perftracker/services/logger"
)

func main() {
	conf := core.NewConfig()

	logger, err := logsvc.New("admin", conf)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	cli := commandLine{conf: conf, logger: logger}
	err = cli.run(ctx, os.Args)
	stop()
	_ = logger.Sync()

	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
