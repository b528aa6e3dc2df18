package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront/cart"
	"github.com/junaidrashid-git/storefront/events"
	"github.com/junaidrashid-git/storefront/models"
)

const (
	redirectingMessage = "Redirecting..."
	paidMessage        = "Payment received. Thank you for your order!"
)

// Service hands a session's cart over to the payment processor. Starting a checkout leaves the
// cart untouched; it is cleared once the payment is confirmed.
type Service struct {
	processor Processor
	recorder  Recorder
	publisher events.Publisher
	currency  string
	logger    *zap.Logger
	now       func() time.Time
}

type ServiceOption func(*Service)

func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithPublisher(p events.Publisher) ServiceOption {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithCurrency(currency string) ServiceOption {
	return func(s *Service) {
		if currency != "" {
			s.currency = currency
		}
	}
}

func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(p Processor, opts ...ServiceOption) *Service {
	s := &Service{
		processor: p,
		recorder:  newMemoryRecorder(),
		publisher: events.Nop{},
		currency:  "usd",
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout creates a payment session for everything currently in store.
func (s *Service) Checkout(ctx context.Context, sessionID string, store *cart.Store) (Session, error) {
	state := store.Snapshot()
	if len(state.Items) == 0 {
		store.Notify(cart.LevelError, "Your cart is empty.")
		return Session{}, ErrEmptyCart
	}

	store.Notify(cart.LevelLoading, redirectingMessage)

	session, err := s.processor.CreateSession(ctx, Request{SessionID: sessionID, Items: state.Items})
	s.record(ctx, sessionID, state, session, err)
	if err != nil {
		s.logger.Error("checkout session failed",
			zap.String("session_id", sessionID),
			zap.Int("items", len(state.Items)),
			zap.Error(err))
		store.Notify(cart.LevelError, userMessage(err))
		return Session{}, err
	}

	s.logger.Info("checkout session created",
		zap.String("session_id", sessionID),
		zap.String("checkout_id", session.ID),
		zap.String("amount", state.TotalPrice.StringFixed(2)))

	s.publish(ctx, sessionID, state, session)
	return session, nil
}

// Complete settles a paid checkout: the audit row is marked and the shopper's cart, when the
// session is still open, is cleared. A checkout that was already completed is left alone.
func (s *Service) Complete(ctx context.Context, sessionID, checkoutID string, store *cart.Store) error {
	first, err := s.recorder.Complete(ctx, sessionID, checkoutID)
	if err != nil {
		return fmt.Errorf("failed to mark checkout %s completed: %w", checkoutID, err)
	}
	if !first {
		s.logger.Info("checkout already completed, ignoring redelivery",
			zap.String("session_id", sessionID),
			zap.String("checkout_id", checkoutID))
		return nil
	}

	if store != nil {
		store.Clear()
		store.SetVisible(false)
		store.Notify(cart.LevelSuccess, paidMessage)
	}

	s.logger.Info("checkout completed",
		zap.String("session_id", sessionID),
		zap.String("checkout_id", checkoutID),
		zap.Bool("cart_cleared", store != nil))

	event := events.CheckoutCompleted{SessionID: sessionID, CheckoutID: checkoutID, CompletedAt: s.now()}
	if err := s.publisher.Publish(ctx, events.SubjectCheckoutCompleted, event); err != nil {
		s.logger.Warn("failed to publish checkout event", zap.String("checkout_id", checkoutID), zap.Error(err))
	}
	return nil
}

func (s *Service) record(ctx context.Context, sessionID string, state cart.State, session Session, err error) {
	row := &models.CheckoutSession{
		SessionID:  sessionID,
		ExternalID: session.ID,
		Amount:     state.TotalPrice,
		Currency:   s.currency,
		ItemCount:  state.TotalQuantity,
		Status:     models.CheckoutStatusCreated,
		CreatedAt:  s.now(),
	}
	if err != nil {
		row.Status = models.CheckoutStatusFailed
		row.Error = err.Error()
	}
	if recErr := s.recorder.Record(ctx, row); recErr != nil {
		s.logger.Warn("failed to record checkout attempt", zap.String("session_id", sessionID), zap.Error(recErr))
	}
}

func (s *Service) publish(ctx context.Context, sessionID string, state cart.State, session Session) {
	items := make([]events.Item, 0, len(state.Items))
	for _, item := range state.Items {
		items = append(items, events.Item{ProductID: item.ID, Quantity: item.Quantity, Price: item.Price})
	}
	event := events.CheckoutSessionCreated{
		SessionID:  sessionID,
		CheckoutID: session.ID,
		Amount:     state.TotalPrice,
		Currency:   s.currency,
		Items:      items,
		CreatedAt:  s.now(),
	}
	if err := s.publisher.Publish(ctx, events.SubjectCheckoutSessionCreated, event); err != nil {
		s.logger.Warn("failed to publish checkout event", zap.String("checkout_id", session.ID), zap.Error(err))
	}
}

func userMessage(err error) string {
	var pe *ProcessorError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return "Checkout failed. Please try again."
}

