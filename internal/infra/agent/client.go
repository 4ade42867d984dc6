// Package agent implements the domain's ledger capabilities over the canister
// HTTP gateway. One Client is one authenticated session's call capability;
// the token, exchange and faucet clients share it.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/unchain-tech/icp-basic-dex/internal/domain"
)

const defaultTimeout = 10 * time.Second

// Client is the HTTP boundary to the canister gateway (Boundary Layer).
// It performs no retries; retry policy belongs to the orchestrators.
type Client struct {
	baseURL    string
	principal  string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a session-scoped gateway client. The session token is the
// opaque authenticated call handle issued by the identity provider.
func NewClient(gatewayURL, principal, sessionToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   gatewayURL,
		principal: principal,
		token:     sessionToken,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		logger: slog.Default().With("module", "agent"),
	}
}

// Principal returns the authenticated principal this client calls as.
func (c *Client) Principal() string {
	return c.principal
}

// callRequest is the gateway's call body.
type callRequest struct {
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// resultEnvelope mirrors the canister Result encoding: exactly one of Ok or
// Err is set. Err carries the ledger's variant tag verbatim.
type resultEnvelope struct {
	Ok  json.RawMessage `json:"ok"`
	Err string          `json:"err"`
}

// call performs one canister method call and decodes the Ok payload into out
// (out may be nil when the payload is irrelevant). Wire-level failures come
// back as *domain.TransportError, ledger denials as *domain.RemoteRejection.
func (c *Client) call(ctx context.Context, canister, method string, args []any, out any) error {
	op := canister + "." + method

	reqBody, err := json.Marshal(callRequest{Method: method, Args: args})
	if err != nil {
		return domain.NewTransportError(op, fmt.Errorf("encode request: %w", err))
	}

	url := fmt.Sprintf("%s/api/v1/canister/%s/call", c.baseURL, canister)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return domain.NewTransportError(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Principal", c.principal)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewTransportError(op, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewTransportError(op, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return domain.NewTransportError(op, fmt.Errorf("gateway status=%d body=%s", resp.StatusCode, string(bodyBytes)))
	}

	var envelope resultEnvelope
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		return domain.NewTransportError(op, fmt.Errorf("parse response: %w", err))
	}
	if envelope.Err != "" {
		c.logger.Debug("remote rejection", "op", op, "tag", envelope.Err)
		return &domain.RemoteRejection{Op: op, Tag: envelope.Err}
	}

	if out != nil && len(envelope.Ok) > 0 {
		if err := json.Unmarshal(envelope.Ok, out); err != nil {
			return domain.NewTransportError(op, fmt.Errorf("decode result: %w", err))
		}
	}
	return nil
}
