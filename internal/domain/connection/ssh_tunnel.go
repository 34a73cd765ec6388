package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/whhaicheng/benchto-driver/internal/domain/config"
)

// SSHTunnel forwards a local port to a remote database through an SSH server.
type SSHTunnel struct {
	cfg       config.SSHTunnelConfig
	client    *ssh.Client
	listener  net.Listener
	localPort int
	cancel    context.CancelFunc
	mu        sync.Mutex
	closed    bool
}

// NewSSHTunnel dials the SSH server and starts forwarding an auto-assigned
// local port to remoteHost:remotePort.
func NewSSHTunnel(ctx context.Context, cfg config.SSHTunnelConfig, remoteHost string, remotePort int) (*SSHTunnel, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SSH host is required")
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("SSH username is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("SSH port must be between 1 and 65535")
	}

	slog.Info("SSH: Creating tunnel",
		"op", "ssh_tunnel_create",
		"ssh_host", cfg.Host,
		"ssh_port", cfg.Port,
		"remote_host", remoteHost,
		"remote_port", remotePort,
		"username", cfg.Username)

	sshConfig, err := buildSSHConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH config: %w", err)
	}

	sshAddr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dialer := net.Dialer{Timeout: 30 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", sshAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SSH server %s: %w", sshAddr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, sshAddr, sshConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SSH handshake failed: %w", err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("failed to create local listener: %w", err)
	}

	tunnel := &SSHTunnel{
		cfg:       cfg,
		client:    sshClient,
		listener:  listener,
		localPort: listener.Addr().(*net.TCPAddr).Port,
	}
	tunnel.startForwarding(remoteHost, remotePort)

	slog.Info("SSH: Tunnel created successfully",
		"op", "ssh_tunnel_created",
		"local_port", tunnel.localPort,
		"remote_target", fmt.Sprintf("%s:%d", remoteHost, remotePort))

	return tunnel, nil
}

func buildSSHConfig(cfg config.SSHTunnelConfig) (*ssh.ClientConfig, error) {
	clientConfig := &ssh.ClientConfig{
		User:            cfg.Username,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}

	if password := cfg.ResolvePassword(); password != "" {
		clientConfig.Auth = append(clientConfig.Auth, ssh.Password(password))
	}

	if cfg.KeyPath != "" {
		pem, err := os.ReadFile(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		key, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		clientConfig.Auth = append(clientConfig.Auth, ssh.PublicKeys(key))
	}

	if len(clientConfig.Auth) == 0 {
		return nil, fmt.Errorf("SSH requires either password or private key")
	}
	return clientConfig, nil
}

func (t *SSHTunnel) startForwarding(remoteHost string, remotePort int) {
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	go func() {
		for {
			conn, err := t.listener.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return
				}
				slog.Error("SSH: Failed to accept connection", "error", err)
				continue
			}
			go t.forwardConnection(conn, remoteHost, remotePort)
		}
	}()
}

func (t *SSHTunnel) forwardConnection(localConn net.Conn, remoteHost string, remotePort int) {
	defer localConn.Close()

	t.mu.Lock()
	client := t.client
	t.mu.Unlock()

	remoteAddr := fmt.Sprintf("%s:%d", remoteHost, remotePort)
	remoteConn, err := client.Dial("tcp", remoteAddr)
	if err != nil {
		slog.Error("SSH: Failed to dial remote", "error", err, "remote", remoteAddr)
		return
	}
	defer remoteConn.Close()

	done := make(chan struct{}, 2)
	go func() {
		_, _ = io.Copy(remoteConn, localConn)
		done <- struct{}{}
	}()
	go func() {
		_, _ = io.Copy(localConn, remoteConn)
		done <- struct{}{}
	}()
	<-done
}

// LocalPort returns the local port number of the tunnel.
func (t *SSHTunnel) LocalPort() int {
	return t.localPort
}

// Close closes the SSH tunnel and releases resources.
func (t *SSHTunnel) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	slog.Info("SSH: Closing tunnel", "op", "ssh_tunnel_close", "local_port", t.localPort)

	if t.cancel != nil {
		t.cancel()
	}

	var errs []error
	if err := t.listener.Close(); err != nil {
		errs = append(errs, fmt.Errorf("listener close: %w", err))
	}
	if err := t.client.Close(); err != nil {
		errs = append(errs, fmt.Errorf("client close: %w", err))
	}
	return errors.Join(errs...)
}
