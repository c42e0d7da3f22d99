//go:build !windows

package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

// captureStdout returns what fn writes to os.Stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = oldStdout
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestHandleServiceCommand_NotHandled(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{}},
		{"program only", []string{"fanwatch"}},
		{"cli command", []string{"fanwatch", "history"}},
		{"flag", []string{"fanwatch", "-config", "x.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if HandleServiceCommand(tt.args) {
				t.Errorf("HandleServiceCommand(%v) = true", tt.args)
			}
		})
	}
}

func TestHandleServiceCommand_Help(t *testing.T) {
	for _, cmd := range []string{"help", "-h", "--help", "-help"} {
		t.Run(cmd, func(t *testing.T) {
			var handled bool
			output := captureStdout(t, func() {
				handled = HandleServiceCommand([]string{"fanwatch", cmd})
			})

			if !handled {
				t.Errorf("HandleServiceCommand should return true for %s", cmd)
			}
			for _, want := range []string{"fanwatch", "history", "install"} {
				if !strings.Contains(output, want) {
					t.Errorf("help output missing %q, got: %s", want, output)
				}
			}
		})
	}
}

func TestHandleServiceCommand_ServiceCommands_NonWindows(t *testing.T) {
	for _, cmd := range []string{"install", "uninstall", "remove", "start", "stop", "restart", "status"} {
		t.Run(cmd, func(t *testing.T) {
			var handled bool
			output := captureStdout(t, func() {
				handled = HandleServiceCommand([]string{"fanwatch", cmd})
			})

			if !handled {
				t.Errorf("HandleServiceCommand should return true for %s on non-Windows", cmd)
			}
			if !strings.Contains(output, "Windows") {
				t.Errorf("output should mention Windows, got: %s", output)
			}
		})
	}
}

func TestRunAsService_Interactive(t *testing.T) {
	isService, err := RunAsService()
	if err != nil {
		t.Errorf("RunAsService returned error: %v", err)
	}
	if isService {
		t.Error("RunAsService should return false outside Windows")
	}
}
