package main

import (
	"os"

	"github.com/avalier/reviewerd/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
