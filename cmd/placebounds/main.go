package main

import (
	"fmt"
	"os"
	"strings"
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitInvalidArgs      = 2
	ExitSourceNotAccess  = 3
	ExitInterrupted      = 4
	ExitStorageError     = 5
	ExitSourceChanged    = 6
	ExitValidationFailed = 7
	ExitRegionsFailed    = 8
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") && !isHelp(args[0]) {
		return runGenerate(args)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "generate":
		return runGenerate(cmdArgs)
	case "fetch":
		return runFetch(cmdArgs)
	case "validate":
		return runValidate(cmdArgs)
	case "publish":
		return runPublish(cmdArgs)
	case "check":
		return runCheck(cmdArgs)
	case "regions":
		return runRegions(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func isHelp(arg string) bool {
	return arg == "-h" || arg == "--help"
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: placebounds [command] [options]

Commands:
  generate  Download, simplify and write place boundaries per region (default)
  fetch     Download region archives into the cache only
  validate  Check that boundary files are well-formed
  publish   Upload existing boundary files to a bucket
  check     Compare cached archives with the remote copies
  regions   List the known regions

Run 'placebounds <command> -h' for command-specific help.`)
}
