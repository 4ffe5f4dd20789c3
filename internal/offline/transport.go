package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/order"
)

// ErrConflict marks a mutation the server refused for good. Resending it
// will never succeed.
var ErrConflict = errors.New("mutation conflict")

// Ack is the server's answer for an applied mutation.
type Ack struct {
	LocalID   uuid.UUID  `json:"local_id"`
	Outcome   string     `json:"outcome"`
	Duplicate bool       `json:"duplicate"`
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	ItemID    *uuid.UUID `json:"item_id,omitempty"`
	Detail    string     `json:"detail,omitempty"`
}

// Transport delivers one mutation to the server. It returns an error
// wrapping ErrConflict for permanent refusals; any other error is retryable.
type Transport interface {
	Send(ctx context.Context, m order.Mutation) (*Ack, error)
}

// HTTPTransport posts mutations to the API replay endpoint.
type HTTPTransport struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewHTTPTransport creates a transport. token must be a device token.
func NewHTTPTransport(baseURL, token string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		token:   token,
	}
}

func (t *HTTPTransport) Send(ctx context.Context, m order.Mutation) (*Ack, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrConflict, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/orders/mutations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.token)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send mutation: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode == http.StatusOK:
		var ack Ack
		if err := json.Unmarshal(raw, &ack); err != nil {
			return nil, fmt.Errorf("decode ack: %w", err)
		}
		return &ack, nil

	case resp.StatusCode == http.StatusConflict, resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrConflict, errorDetail(raw, resp.Status))

	default:
		// Auth failures and server errors are retried; the operator can
		// fix a token without losing queued work.
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, errorDetail(raw, ""))
	}
}

// errorDetail pulls a readable message out of an error body.
func errorDetail(raw []byte, fallback string) string {
	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Detail != "" {
			return body.Detail
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if fallback != "" {
		return fallback
	}
	return string(raw)
}
