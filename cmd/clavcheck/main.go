// Command clavcheck checks classification schemes for consistency.
package main

import (
	"fmt"
	"os"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
