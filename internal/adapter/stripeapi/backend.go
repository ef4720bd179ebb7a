package stripeapi

import (
	"context"
	"errors"

	"card-terminal/internal/core/ports"
	"card-terminal/pkg/apperror"
	"card-terminal/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v74"
)

// Backend implements ports.BackendAPI directly against the API, for
// deployments where the terminal host holds the secret key itself.
type Backend struct {
	api API
	log zerolog.Logger
}

var _ ports.BackendAPI = (*Backend)(nil)

func NewBackend(api API, log zerolog.Logger) *Backend {
	return &Backend{api: api, log: logger.Component(log, "stripe_backend")}
}

func (b *Backend) FetchConnectionToken(ctx context.Context) (string, error) {
	params := &stripe.TerminalConnectionTokenParams{}
	params.Context = ctx

	token, err := b.api.tokens.New(params)
	if err != nil {
		return "", backendError(err)
	}
	if token.Secret == "" {
		return "", apperror.ErrBackendRejected("connection token without secret")
	}
	return token.Secret, nil
}

func (b *Backend) CapturePaymentIntent(ctx context.Context, paymentIntentID string) error {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx

	if _, err := b.api.intents.Capture(paymentIntentID, params); err != nil {
		b.log.Error().Err(err).Str("payment_intent_id", paymentIntentID).Msg("capture rejected")
		return backendError(err)
	}
	b.log.Info().Str("payment_intent_id", paymentIntentID).Msg("payment intent captured")
	return nil
}

// backendError separates API rejections from transport failures.
func backendError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode > 0 {
		msg := stripeErr.Msg
		if msg == "" {
			msg = string(stripeErr.Type)
		}
		return apperror.ErrBackendRejected(msg)
	}
	return apperror.ErrBackendUnavailable(err)
}
