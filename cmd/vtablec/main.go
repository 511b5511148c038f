package main

import (
	"os"

	"github.com/funvibe/vtablec/pkg/vtablecli"
)

func main() {
	os.Exit(vtablecli.Run(os.Args))
}
