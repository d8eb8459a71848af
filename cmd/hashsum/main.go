// Package main provides the hashsum command, which creates and verifies
// checksum manifests.
package main

import (
	"errors"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		if !errors.Is(err, errVerificationFailed) {
			printError("%v", err)
		}
		os.Exit(1)
	}
}
