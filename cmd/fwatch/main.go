package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/agisilaos/flightwatch/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not read .env: %v\n", err)
	}
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	app := cli.NewApp(version)
	if err := app.Run(args); err != nil {
		fmt.Fprintln(stderr, err)
		for _, hint := range cli.ErrorHints(err) {
			fmt.Fprintf(stderr, "next: %s\n", hint)
		}
		return cli.ExitCode(err)
	}
	return cli.ExitSuccess
}
