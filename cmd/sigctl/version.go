package main

import (
	"fmt"

	"github.com/gopherflux/signals/src/internal/buildinfo"
)

func versionCommand() error {
	fmt.Printf("sigctl version %s\n", buildinfo.Version)
	fmt.Printf("User agent: %s\n", buildinfo.UserAgent())
	return nil
}
