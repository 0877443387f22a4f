package main

import (
	"fmt"
	"os"

	"keyword-research-go/internal/cli"
)

func main() {
	if err := cli.ExecuteServer(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
