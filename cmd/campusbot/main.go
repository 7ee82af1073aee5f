package main

import (
	"context"
	"os"

	"campusbot/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
