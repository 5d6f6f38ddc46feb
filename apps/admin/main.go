package main

import (
	"log"
	"os"

	"github.com/gcl-lms/web/core"
	backendapi "github.com/gcl-lms/web/services/backend"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// start CLI
	cli := commandLine{
		backend: backendapi.NewClient(backendapi.Options{BaseURL: conf.API.BaseURL, Timeout: conf.API.Timeout}),
		out:     os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
