// Command ksaverify checks a 4-bit Kogge-Stone adder model against reference
// arithmetic.
//
// Exit codes:
//
//	0  every case matched
//	1  contract violation
//	2  usage, config or I/O error
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Err != nil {
				fmt.Fprintln(os.Stderr, exitErr.Err)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
}
