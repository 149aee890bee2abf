package main

import (
	"os"

	"github.com/droverproject/drover/cmd/droverctl/cmd"
	"github.com/droverproject/drover/internal/common"
)

func main() {
	common.ConfigureCommandLineLogging()
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
