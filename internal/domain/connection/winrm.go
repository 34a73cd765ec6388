package connection

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/masterzen/winrm"

	"github.com/whhaicheng/benchto-driver/internal/domain/config"
)

// WinRMClient runs commands on a remote Windows host.
type WinRMClient struct {
	host   string
	client *winrm.Client
}

// NewWinRMClient creates a new WinRM client. Port defaults to 5985 for HTTP
// and 5986 for HTTPS.
func NewWinRMClient(cfg config.WinRMConfig) (*WinRMClient, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: winrm host is required", config.ErrInvalidConfiguration)
	}
	port := cfg.Port
	if port == 0 {
		port = 5985
		if cfg.UseHTTPS {
			port = 5986
		}
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("%w: winrm port must be between 1 and 65535, got %d", config.ErrInvalidConfiguration, port)
	}

	endpoint := winrm.NewEndpoint(
		cfg.Host,
		port,
		cfg.UseHTTPS,
		false, // insecure
		nil,   // cacert
		nil,   // cert
		nil,   // key
		60*time.Second,
	)

	client, err := winrm.NewClient(endpoint, cfg.Username, cfg.ResolvePassword())
	if err != nil {
		return nil, fmt.Errorf("failed to create WinRM client: %w", err)
	}

	slog.Debug("WinRM: Client created", "op", "winrm_created", "host", cfg.Host, "port", port)

	return &WinRMClient{host: cfg.Host, client: client}, nil
}

// Run executes a command and returns its standard output. A non-zero exit
// code is reported as an error carrying the captured standard error.
func (c *WinRMClient) Run(ctx context.Context, command string) (string, error) {
	var stdout, stderr bytes.Buffer
	exitCode, err := c.client.RunWithContext(ctx, command, &stdout, &stderr)
	if err != nil {
		return "", fmt.Errorf("winrm command on %s failed: %w", c.host, err)
	}
	if exitCode != 0 {
		return stdout.String(), fmt.Errorf("winrm command on %s exited with code %d: %s",
			c.host, exitCode, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
