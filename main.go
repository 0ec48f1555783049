// main.go
package main

import (
	"os"

	"github.com/ViniZap4/sharednotes/cli"
)

func main() {
	os.Exit(cli.Execute())
}
