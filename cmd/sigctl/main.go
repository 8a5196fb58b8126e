package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "scenario":
		err = runScenario(args)
	case "inspect":
		err = inspectCommand(args)
	case "version", "--version", "-v":
		err = versionCommand()
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			if exitErr.Error() != "" {
				fmt.Fprintln(os.Stderr, exitErr.Error())
			}
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("sigctl - reactive signal store toolkit")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  sigctl scenario    - Run a demo counter scenario and print observed values")
	fmt.Println("  sigctl inspect     - Dump store diagnostics for the demo scenario")
	fmt.Println("  sigctl version     - Show version information")
}
