// Command creactl scores attribute vectors, composes prompts and renders
// canvas frames from the terminal without starting the HTTP server.
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
