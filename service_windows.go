//go:build windows

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kardianos/service"

	"fanwatch/core"
	"fanwatch/shutdown"
)

// Program implements service.Interface. It runs the same watchdog loop as
// the foreground command.
type Program struct {
	cmd command

	mu       sync.Mutex
	manager  *shutdown.Manager
	stopping bool

	exit chan struct{}
	code int
}

// Start is called by the service manager. It must not block.
func (p *Program) Start(s service.Service) error {
	p.exit = make(chan struct{})
	go p.run()
	return nil
}

func (p *Program) run() {
	defer close(p.exit)

	// Services start in System32; relative paths resolve next to the binary.
	if exe, err := os.Executable(); err == nil {
		os.Chdir(filepath.Dir(exe))
	}

	p.code = runWatchdog(p.cmd, io.Discard, io.Discard, p.setManager)

	p.mu.Lock()
	stopping := p.stopping
	p.mu.Unlock()

	// The loop ended on its own; exit so the service manager applies its
	// recovery actions.
	if !stopping {
		os.Exit(p.code)
	}
}

func (p *Program) setManager(m *shutdown.Manager) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.manager = m
	if p.stopping {
		m.Stop("service stop")
	}
}

// Stop is called by the service manager. It waits for the current cycle to
// finish and the cleanup functions to run.
func (p *Program) Stop(s service.Service) error {
	p.mu.Lock()
	p.stopping = true
	m := p.manager
	p.mu.Unlock()

	if m != nil {
		m.Stop("service stop")
	}

	select {
	case <-p.exit:
		return nil
	case <-time.After(shutdown.DefaultTimeout + 5*time.Second):
		return fmt.Errorf("timeout waiting for service to stop")
	}
}

// ServiceConfig returns the service configuration. args are passed to the
// service on every start.
func ServiceConfig(args []string) *service.Config {
	return &service.Config{
		Name:        serviceName,
		DisplayName: serviceDisplayName,
		Description: serviceDescription,
		Arguments:   args,
		Option: service.KeyValue{
			"StartType":              "automatic",
			"OnFailure":              "restart",
			"OnFailureDelayDuration": "10s",
		},
	}
}

func newService(prg *Program, args []string) (service.Service, error) {
	s, err := service.New(prg, ServiceConfig(args))
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return s, nil
}

// RunAsService runs under the service manager when not interactive. It
// reports whether it did.
func RunAsService() (bool, error) {
	if service.Interactive() {
		return false, nil
	}

	cmd, err := parseArgs(os.Args[1:], io.Discard)
	if err != nil {
		return true, fmt.Errorf("invalid service arguments: %w", err)
	}

	prg := &Program{cmd: cmd}
	s, err := newService(prg, nil)
	if err != nil {
		return true, err
	}
	if err := s.Run(); err != nil {
		return true, fmt.Errorf("service run failed: %w", err)
	}
	return true, nil
}

// InstallService installs the service with args as its start arguments.
func InstallService(args []string) error {
	if _, err := parseArgs(args, os.Stderr); err != nil {
		return fmt.Errorf("invalid service arguments: %w", err)
	}
	s, err := newService(&Program{}, args)
	if err != nil {
		return err
	}
	if err := s.Install(); err != nil {
		return fmt.Errorf("failed to install service: %w", err)
	}
	fmt.Println("Service installed successfully")
	return nil
}

// control runs one service control action.
func control(action string) error {
	s, err := newService(&Program{}, nil)
	if err != nil {
		return err
	}
	if err := service.Control(s, action); err != nil {
		return fmt.Errorf("failed to %s service: %w", action, err)
	}
	return nil
}

// ServiceStatus returns the current status of the service.
func ServiceStatus() (service.Status, error) {
	s, err := newService(&Program{}, nil)
	if err != nil {
		return service.StatusUnknown, err
	}
	status, err := s.Status()
	if err != nil {
		return service.StatusUnknown, fmt.Errorf("failed to get service status: %w", err)
	}
	return status, nil
}

// HandleServiceCommand handles help and service management commands. It
// returns false when args name no such command.
func HandleServiceCommand(args []string) bool {
	if len(args) < 2 {
		return false
	}

	name := args[1]
	if isHelpCommand(name) {
		PrintServiceUsage()
		return true
	}
	if !isServiceCommand(name) {
		return false
	}

	var err error
	switch name {
	case "install":
		err = InstallService(args[2:])
	case "status":
		var status service.Status
		status, err = ServiceStatus()
		if err == nil {
			switch status {
			case service.StatusRunning:
				fmt.Println("Service is running")
			case service.StatusStopped:
				fmt.Println("Service is stopped")
			default:
				fmt.Println("Service status unknown")
			}
		}
	case "remove":
		name = "uninstall"
		fallthrough
	default:
		if err = control(name); err == nil {
			fmt.Printf("Service %s: done\n", name)
		}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(core.ExitCodeError)
	}
	return true
}
