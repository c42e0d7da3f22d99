package main

import (
	"fmt"
	"io"
	"os"
)

const (
	serviceName        = "fanwatch"
	serviceDisplayName = "GPU Fan Watchdog"
	serviceDescription = "Watches AMD GPU fan sensors and restarts ASRock Tweak Tool when the fan reading is lost"
)

// isServiceCommand reports whether name is a service management command.
func isServiceCommand(name string) bool {
	switch name {
	case "install", "uninstall", "remove", "start", "stop", "restart", "status":
		return true
	}
	return false
}

func isHelpCommand(name string) bool {
	switch name {
	case "help", "-h", "--help", "-help":
		return true
	}
	return false
}

// PrintServiceUsage prints the help for all commands.
func PrintServiceUsage() {
	writeUsage(os.Stdout)
}

func writeUsage(w io.Writer) {
	fmt.Fprintln(w, "fanwatch - GPU fan watchdog")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: fanwatch [command] [-env file] [-config file]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run        Monitor the fans in the foreground (default)")
	fmt.Fprintln(w, "  validate   Run the startup checks and exit")
	fmt.Fprintln(w, "  reset      Reset the fan utility once")
	fmt.Fprintln(w, "  history    Summarize the recovery journal (-limit n, -since 24h)")
	fmt.Fprintln(w, "  version    Print version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Service commands (Windows):")
	fmt.Fprintln(w, "  install    Install as a Windows service; flags after install are passed to the service")
	fmt.Fprintln(w, "  uninstall  Remove the Windows service (alias: remove)")
	fmt.Fprintln(w, "  start      Start the Windows service")
	fmt.Fprintln(w, "  stop       Stop the Windows service")
	fmt.Fprintln(w, "  restart    Restart the Windows service (stop then start)")
	fmt.Fprintln(w, "  status     Show the current service status")
	fmt.Fprintln(w, "  help       Show this help message")
}
