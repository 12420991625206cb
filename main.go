package main

import (
	"os"

	"acc/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args))
}
