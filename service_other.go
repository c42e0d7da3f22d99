//go:build !windows

package main

import (
	"fmt"
	"os"
)

// RunAsService always reports false; services exist only on Windows.
func RunAsService() (bool, error) {
	return false, nil
}

// HandleServiceCommand prints usage for help and refuses service commands.
func HandleServiceCommand(args []string) bool {
	if len(args) < 2 {
		return false
	}
	switch {
	case isHelpCommand(args[1]):
		PrintServiceUsage()
		return true
	case isServiceCommand(args[1]):
		fmt.Fprintf(os.Stdout, "The %s command is only available on Windows\n", args[1])
		return true
	}
	return false
}
