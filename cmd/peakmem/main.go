package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/voluzi/peakmem/cmd/peakmem/cmd"
)

func main() {
	cmd.Execute()
}
