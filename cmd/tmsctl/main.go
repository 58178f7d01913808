// Command tmsctl is the operator CLI: schema migrations, job control and
// first-admin bootstrap.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
