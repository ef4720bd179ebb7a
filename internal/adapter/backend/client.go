// Package backend talks to the merchant backend that holds the secret API
// key. The endpoints follow the example terminal backend: POST
// /connection_token and POST /capture_payment_intent.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"card-terminal/internal/core/ports"
	"card-terminal/pkg/apperror"
	"card-terminal/pkg/logger"

	"github.com/rs/zerolog"
)

const maxErrorBody = 4 << 10

// Client implements ports.BackendAPI over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

var _ ports.BackendAPI = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logger.Component(log, "backend"),
	}
}

type connectionTokenResponse struct {
	Secret string `json:"secret"`
	Error  string `json:"error"`
}

type captureRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// FetchConnectionToken asks the backend for a fresh reader connection token.
func (c *Client) FetchConnectionToken(ctx context.Context) (string, error) {
	resp, err := c.post(ctx, "/connection_token", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body connectionTokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err != nil {
		return "", apperror.ErrBackendRejected(fmt.Sprintf("connection token response is not JSON (status %d)", resp.StatusCode))
	}

	switch {
	case body.Secret != "":
		return body.Secret, nil
	case body.Error != "":
		return "", apperror.ErrBackendRejected("the server answered: " + body.Error)
	default:
		return "", apperror.ErrBackendRejected("missing secret in connection token response")
	}
}

// CapturePaymentIntent captures an authorized intent. Any 2xx is success.
func (c *Client) CapturePaymentIntent(ctx context.Context, paymentIntentID string) error {
	payload, err := json.Marshal(captureRequest{PaymentIntentID: paymentIntentID})
	if err != nil {
		return apperror.InternalError(err)
	}

	resp, err := c.post(ctx, "/capture_payment_intent", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("payment_intent_id", paymentIntentID).
			Msg("capture rejected")
		return apperror.ErrBackendRejected(fmt.Sprintf("capture returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	c.log.Info().Str("payment_intent_id", paymentIntentID).Msg("payment intent captured")
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("backend request failed")
		return nil, apperror.ErrBackendUnavailable(err)
	}
	return resp, nil
}
