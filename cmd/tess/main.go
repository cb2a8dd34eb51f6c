// Package main is the entry point for the tess CLI binary.
package main

import (
	"os"

	"github.com/roach88/tesseract/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
