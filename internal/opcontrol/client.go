package opcontrol

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// DefaultClientTimeout bounds how long a CLI command waits for the
// control socket to answer.
const DefaultClientTimeout = 5 * time.Second

// Client talks to a running supervisor's control socket.
type Client struct {
	sockPath string
	timeout  time.Duration
}

// NewClient creates a client for the control socket at sockPath.
func NewClient(sockPath string) *Client {
	return &Client{sockPath: sockPath, timeout: DefaultClientTimeout}
}

// SetTimeout overrides the default per-call timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

func (c *Client) call(method string, params any) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.sockPath, c.timeout)
	if err != nil {
		return nil, c.wrapConnError(err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	req := Request{Method: method, Params: params}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("bouncer error: %s", resp.Error)
	}
	return &resp, nil
}

func (c *Client) wrapConnError(err error) error {
	var sysErr syscall.Errno
	if errors.As(err, &sysErr) {
		switch sysErr {
		case syscall.ENOENT:
			return errors.New("bouncer not running (socket not found)")
		case syscall.ECONNREFUSED:
			return errors.New("bouncer not running (connection refused)")
		}
	}
	if os.IsNotExist(err) {
		return errors.New("bouncer not running (socket not found)")
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return errors.New("bouncer request timed out")
	}
	return fmt.Errorf("connect to bouncer: %w", err)
}

// Status fetches the current supervisor status.
func (c *Client) Status() (*StatusResponse, error) {
	resp, err := c.call("status", nil)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	var status StatusResponse
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("unmarshal status: %w", err)
	}
	return &status, nil
}

// Pause stops the vote engine from accepting new command requests.
func (c *Client) Pause() error {
	_, err := c.call("pause", nil)
	return err
}

// Resume resumes accepting command requests.
func (c *Client) Resume() error {
	_, err := c.call("resume", nil)
	return err
}

// Stop requests the supervisor to shut down. Without force the child is
// asked to exit with the polite termination signal; with force it is
// killed immediately.
func (c *Client) Stop(force bool) error {
	_, err := c.call("stop", StopParams{Force: force})
	return err
}

// IsRunning reports whether the control socket accepts connections.
func (c *Client) IsRunning() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, time.Second)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
