// Command qaflow builds and presents branching question/answer flows.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		colorBad.Fprintf(os.Stderr, "qaflow: %v\n", err)
		os.Exit(1)
	}
}
