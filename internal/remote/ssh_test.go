package remote

import (
	"context"
	"testing"
	"time"
)

func TestNewSSHExecutorDefaults(t *testing.T) {
	e := NewSSHExecutor(Config{Host: "example.com"})
	if e.config.Port != 22 {
		t.Errorf("Expected default port 22, got %d", e.config.Port)
	}
	if e.config.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", e.config.Timeout)
	}
}

func TestExecRequiresHost(t *testing.T) {
	e := NewSSHExecutor(Config{})
	if _, _, err := e.Exec(context.Background(), "uptime"); err == nil {
		t.Error("Expected error for missing host")
	}
}

func TestExecDialFailure(t *testing.T) {
	// Port 1 on loopback refuses immediately.
	e := NewSSHExecutor(Config{Host: "127.0.0.1", Port: 1, Username: "x", Password: "y", Timeout: 2 * time.Second})
	if _, _, err := e.Exec(context.Background(), "uptime"); err == nil {
		t.Error("Expected dial error")
	}
}
