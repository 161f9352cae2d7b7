package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the wizard process.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the wizard status snapshot.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Wizard.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the wizard process to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Wizard.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OpenBrowser asks the wizard to open its UI in the user's browser.
func (c *Client) OpenBrowser() (*OpenBrowserResponse, error) {
	var resp OpenBrowserResponse
	if err := c.client.Call("Wizard.OpenBrowser", OpenBrowserRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SessionList returns all wizard sessions.
func (c *Client) SessionList() (*SessionListResponse, error) {
	var resp SessionListResponse
	if err := c.client.Call("Wizard.SessionList", SessionListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SessionGet returns details for a single session.
func (c *Client) SessionGet(id string) (*SessionGetResponse, error) {
	var resp SessionGetResponse
	req := SessionGetRequest{ID: id}
	if err := c.client.Call("Wizard.SessionGet", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SessionDelete abandons a session.
func (c *Client) SessionDelete(id string) (*SessionDeleteResponse, error) {
	var resp SessionDeleteResponse
	req := SessionDeleteRequest{ID: id}
	if err := c.client.Call("Wizard.SessionDelete", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Preflight reruns the startup checks and returns their results.
func (c *Client) Preflight() (*PreflightResponse, error) {
	var resp PreflightResponse
	if err := c.client.Call("Wizard.Preflight", PreflightRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
