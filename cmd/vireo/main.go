package main

import (
	"fmt"
	"os"

	"github.com/tillberg/autorestart"

	"github.com/vireotag/vireo/internal/cli"
)

func main() {
	go autorestart.RestartOnChange()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
