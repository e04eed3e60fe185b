package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Run(os.Args[1:], NewCliConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "askbot: %v\n", err)
		os.Exit(1)
	}
}
