package main

import (
	"os"

	"github.com/cms-top/crabgen/cmd"
	"github.com/cms-top/crabgen/logger"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		logger.PrintSimpleError(err)
		os.Exit(1)
	}
}
