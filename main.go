package main

import (
	"os"

	"github.com/ngld/b/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
