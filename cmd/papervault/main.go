package main

import (
	"os"

	"github.com/papervault-io/papervault/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
