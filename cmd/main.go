package main

import (
	"os"

	"github.com/graphfuse/graphfuse/cmd/graphfuse"
)

func main() {
	if err := graphfuse.Execute(); err != nil {
		os.Exit(1)
	}
}
