package terminal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"card-terminal/internal/core/domain"
	"card-terminal/internal/core/ports"
	"card-terminal/pkg/apperror"
	"card-terminal/pkg/logger"

	"github.com/rs/zerolog"
)

// RetryPolicy bounds confirmation retries.
type RetryPolicy struct {
	// MaxConfirmRetries bounds retries of an intent the processor reports
	// as requires_confirmation.
	MaxConfirmRetries int
	// MaxAmbiguousRetries bounds retries with the unchanged intent when the
	// outcome of a confirmation is unknown.
	MaxAmbiguousRetries int
	Backoff             time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxConfirmRetries: 3, MaxAmbiguousRetries: 1, Backoff: 500 * time.Millisecond}
}

type chargePhase int

const (
	phaseIdle chargePhase = iota
	phaseCreating
	phaseCollecting
	phaseConfirming
	phaseCapturing
)

// Processor drives one payment intent from creation to capture.
type Processor struct {
	sdk     ports.ReaderSDK
	backend ports.BackendAPI
	policy  RetryPolicy
	log     zerolog.Logger
	now     func() time.Time

	mu              sync.Mutex
	phase           chargePhase
	cancelRequested bool
	cancelCollect   context.CancelFunc
}

// NewProcessor also registers the processor as the SDK's connection token
// provider, since both talk to the same backend.
func NewProcessor(sdk ports.ReaderSDK, backend ports.BackendAPI, policy RetryPolicy, log zerolog.Logger) *Processor {
	p := &Processor{
		sdk:     sdk,
		backend: backend,
		policy:  policy,
		log:     logger.Component(log, "processor"),
		now:     time.Now,
	}
	sdk.SetTokenProvider(p)
	return p
}

// FetchConnectionToken implements ports.ConnectionTokenProvider.
func (p *Processor) FetchConnectionToken(ctx context.Context) (string, error) {
	token, err := p.backend.FetchConnectionToken(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("fetching connection token failed")
		return "", err
	}
	return token, nil
}

// Charge always resolves to exactly one result. Confirmation and capture
// run detached from ctx: once an authorization may be in flight it must be
// allowed to settle.
func (p *Processor) Charge(ctx context.Context, amount domain.Amount) domain.PaymentResult {
	if !p.begin() {
		return domain.PaymentFailed(apperror.ErrChargeInProgress())
	}
	defer p.setPhase(phaseIdle)

	log := p.log.With().Str("amount", amount.String()).Logger()

	intent, err := p.sdk.CreatePaymentIntent(ctx, amount)
	if err != nil {
		if isCancellation(ctx, err) {
			return domain.PaymentCanceled()
		}
		log.Error().Err(err).Msg("creating payment intent failed")
		return domain.PaymentFailed(apperror.ErrIntentCreation(err))
	}
	log = log.With().Str("payment_intent_id", intent.ID).Logger()
	log.Info().Msg("payment intent created")

	var (
		confirmRetries   int
		ambiguousRetries int
		needsCollect     = true
	)
	for {
		if needsCollect {
			collected, result, done := p.collect(ctx, intent)
			if done {
				if result.Outcome == domain.OutcomeFailure {
					log.Warn().Err(result.Err).Msg("collecting payment method failed")
				} else {
					log.Info().Msg("payment canceled during collection")
				}
				return result
			}
			intent = collected
		}

		p.setPhase(phaseConfirming)
		confirmed, err := p.sdk.ProcessPayment(context.WithoutCancel(ctx), intent)
		if err == nil {
			return p.capture(ctx, confirmed, log)
		}

		var updated *domain.PaymentIntent
		var confirmErr *domain.ConfirmationError
		if errors.As(err, &confirmErr) {
			updated = confirmErr.Intent
		}

		switch {
		case updated != nil && updated.Status == domain.IntentRequiresConfirmation:
			if confirmRetries >= p.policy.MaxConfirmRetries {
				log.Error().Err(err).Int("retries", confirmRetries).Msg("confirmation retries exhausted")
				return domain.PaymentFailed(apperror.ErrConfirmationFailed(err))
			}
			confirmRetries++
			intent = updated
			needsCollect = false
			log.Warn().Err(err).Int("attempt", confirmRetries).Msg("retrying confirmation with updated intent")

		case updated != nil && updated.Status == domain.IntentRequiresPaymentMethod:
			// A new card starts a new confirmation with its own retry budget.
			intent = updated
			needsCollect = true
			confirmRetries, ambiguousRetries = 0, 0
			log.Warn().Err(err).Msg("payment method declined, collecting again")

		default:
			if ambiguousRetries >= p.policy.MaxAmbiguousRetries {
				log.Error().Err(err).Msg("confirmation outcome unknown, giving up")
				return domain.PaymentFailed(apperror.ErrConfirmationFailed(err))
			}
			ambiguousRetries++
			needsCollect = false
			log.Warn().Err(err).Msg("confirmation outcome unknown, retrying with original intent")
		}

		if !needsCollect {
			if err := p.pause(ctx); err != nil {
				return domain.PaymentFailed(apperror.ErrConfirmationFailed(err))
			}
		}
	}
}

// Cancel cancels an in-flight collection. Confirmation and capture cannot
// be canceled. Idle is a no-op.
func (p *Processor) Cancel() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.phase {
	case phaseIdle:
		return nil
	case phaseCreating:
		p.cancelRequested = true
		return nil
	case phaseCollecting:
		p.cancelRequested = true
		if p.cancelCollect != nil {
			p.cancelCollect()
		}
		return nil
	default:
		return apperror.ErrPaymentNotCancelable()
	}
}

func (p *Processor) collect(ctx context.Context, intent *domain.PaymentIntent) (*domain.PaymentIntent, domain.PaymentResult, bool) {
	collectCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	if p.cancelRequested {
		p.mu.Unlock()
		return nil, domain.PaymentCanceled(), true
	}
	p.phase = phaseCollecting
	p.cancelCollect = cancel
	p.mu.Unlock()

	collected, err := p.sdk.CollectPaymentMethod(collectCtx, intent)

	p.mu.Lock()
	p.cancelCollect = nil
	canceled := p.cancelRequested
	p.mu.Unlock()

	switch {
	case canceled || (err != nil && isCancellation(collectCtx, err)):
		return nil, domain.PaymentCanceled(), true
	case err != nil:
		return nil, domain.PaymentFailed(apperror.ErrCollectFailed(err)), true
	}
	return collected, domain.PaymentResult{}, false
}

func (p *Processor) capture(ctx context.Context, confirmed *domain.PaymentIntent, log zerolog.Logger) domain.PaymentResult {
	settled := confirmed.SettledCharges()
	if len(settled) == 0 {
		log.Error().Int("charges", len(confirmed.Charges)).Msg("confirmed payment has no settled charge")
		return domain.PaymentFailed(apperror.ErrProtocolViolation(
			fmt.Sprintf("payment intent %s confirmed without a settled charge", confirmed.ID)))
	}

	p.setPhase(phaseCapturing)
	if err := p.backend.CapturePaymentIntent(context.WithoutCancel(ctx), confirmed.ID); err != nil {
		log.Error().Err(err).Msg("capture failed")
		return domain.PaymentFailed(apperror.ErrCaptureFailed(err))
	}

	receipt := domain.Receipt{
		PaymentIntentID: confirmed.ID,
		Date:            p.now(),
		Charges:         make([]domain.ReceiptCharge, 0, len(settled)),
	}
	for _, ch := range settled {
		receipt.Charges = append(receipt.Charges, domain.ReceiptCharge{ID: ch.ID, Amount: ch.Amount, Card: ch.Card})
	}

	log.Info().Int("charges", len(receipt.Charges)).Msg("payment captured")
	return domain.PaymentSucceeded(receipt)
}

func (p *Processor) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase != phaseIdle {
		return false
	}
	p.phase = phaseCreating
	p.cancelRequested = false
	return true
}

func (p *Processor) setPhase(phase chargePhase) {
	p.mu.Lock()
	p.phase = phase
	p.mu.Unlock()
}

func (p *Processor) pause(ctx context.Context) error {
	if p.policy.Backoff <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.policy.Backoff)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, domain.ErrCanceled) || errors.Is(err, context.Canceled)
}
