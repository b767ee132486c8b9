package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nvoss/subdoc/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var drift *cli.DriftError
		if errors.As(err, &drift) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
