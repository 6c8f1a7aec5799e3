package httpgw

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	apperrors "wolfquant/internal/errors"
)

// Client is the HTTP implementation of gateway.Gateway, the counterpart
// of the router in this package.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client against a gatewayd base URL, e.g.
// "http://localhost:8090".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type errorEnvelope struct {
	Error *apperrors.AppError `json:"error"`
}

// Invoke implements gateway.Gateway. Backend AppErrors travel the wire as
// code/message pairs and are rebuilt here, so callers branch on the same
// codes regardless of which gateway they hold.
func (c *Client) Invoke(ctx context.Context, command string, req, out interface{}) error {
	var body io.Reader
	if req != nil {
		raw, err := json.Marshal(req)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/invoke/"+command, body)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrRemoteCallFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrRemoteCallFailed, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrRemoteCallFailed, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope errorEnvelope
		if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Error != nil {
			envelope.Error.StatusCode = resp.StatusCode
			return envelope.Error
		}
		return apperrors.WithMessage(apperrors.ErrRemoteCallFailed,
			"remote command failed with status "+resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apperrors.Wrap(apperrors.ErrRemoteCallFailed, err)
	}
	return nil
}
