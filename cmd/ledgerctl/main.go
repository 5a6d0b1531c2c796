// Command ledgerctl is the operator CLI for the weekly sales ledger.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := execute(newCLI(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
