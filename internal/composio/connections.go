package composio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrWaitTimeout is returned when a connection does not turn ACTIVE in time.
	ErrWaitTimeout = errors.New("timed out waiting for connection")

	// ErrConnectionFailed is returned when the provider reports a terminal
	// non-active status while waiting.
	ErrConnectionFailed = errors.New("connection failed")
)

// ListConnectedAccounts returns the connections of userID for toolkit.
func (c *Client) ListConnectedAccounts(ctx context.Context, userID, toolkit string) ([]ConnectedAccount, error) {
	var out listResponse[ConnectedAccount]
	req := c.request(ctx).
		SetQueryParamsFromValues(queryValues("user_ids", userID, "toolkit_slugs", toolkit))
	if err := do(req, http.MethodGet, "/api/v3/connected_accounts", &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetConnectedAccount fetches a single connection.
func (c *Client) GetConnectedAccount(ctx context.Context, id string) (*ConnectedAccount, error) {
	var out ConnectedAccount
	req := c.request(ctx).SetPathParam("id", id)
	if err := do(req, http.MethodGet, "/api/v3/connected_accounts/{id}", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InitiateConnection starts an OAuth connection for userID using authConfigID.
func (c *Client) InitiateConnection(ctx context.Context, authConfigID, userID string) (*ConnectionRequest, error) {
	body := map[string]any{
		"auth_config": map[string]string{"id": authConfigID},
		"connection":  map[string]string{"user_id": userID},
	}

	var out ConnectionRequest
	req := c.request(ctx).SetBody(body)
	if err := do(req, http.MethodPost, "/api/v3/connected_accounts", &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("connection request returned no id")
	}
	return &out, nil
}

// WaitForConnection polls the connection until it is ACTIVE, it reaches a
// terminal status, or timeout elapses. The last poll happens at the deadline.
// Cancelling ctx stops the wait with ctx's error; running out of time yields
// ErrWaitTimeout.
func (c *Client) WaitForConnection(ctx context.Context, id string, timeout time.Duration) (*ConnectedAccount, error) {
	deadline := time.Now().Add(timeout)
	waitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(c.pollInterval), 1)
	for {
		if err := limiter.Wait(waitCtx); err != nil {
			// Wait refuses early when the next token lands past the deadline.
			return c.pollAtDeadline(ctx, id, deadline, timeout)
		}

		account, err := c.GetConnectedAccount(waitCtx, id)
		if err != nil {
			if waitCtx.Err() != nil {
				return nil, waitError(ctx, id, timeout)
			}
			return nil, fmt.Errorf("failed to poll connection %s: %w", id, err)
		}
		if done, err := connectionSettled(account, id); done {
			if err != nil {
				return nil, err
			}
			return account, nil
		}
	}
}

func (c *Client) pollAtDeadline(ctx context.Context, id string, deadline time.Time, timeout time.Duration) (*ConnectedAccount, error) {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	account, err := c.GetConnectedAccount(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to poll connection %s: %w", id, err)
	}
	if done, err := connectionSettled(account, id); done {
		if err != nil {
			return nil, err
		}
		return account, nil
	}
	return nil, waitError(ctx, id, timeout)
}

// connectionSettled reports whether polling can stop, and with which error.
func connectionSettled(account *ConnectedAccount, id string) (bool, error) {
	switch account.Status {
	case StatusActive:
		return true, nil
	case StatusFailed, StatusExpired:
		return true, fmt.Errorf("%w: connection %s is %s", ErrConnectionFailed, id, account.Status)
	}
	return false, nil
}

func waitError(parent context.Context, id string, timeout time.Duration) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: connection %s not active after %s", ErrWaitTimeout, id, timeout)
}
