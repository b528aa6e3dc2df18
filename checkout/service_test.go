package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junaidrashid-git/storefront/cart"
	"github.com/junaidrashid-git/storefront/events"
	"github.com/junaidrashid-git/storefront/models"
)

type fakeProcessor struct {
	session Session
	err     error
	got     []Request
}

func (f *fakeProcessor) CreateSession(_ context.Context, req Request) (Session, error) {
	f.got = append(f.got, req)
	return f.session, f.err
}

type memRecorder struct {
	rows      []models.CheckoutSession
	completed []string
}

func (m *memRecorder) Record(_ context.Context, row *models.CheckoutSession) error {
	m.rows = append(m.rows, *row)
	return nil
}

func (m *memRecorder) Complete(_ context.Context, _, externalID string) (bool, error) {
	for _, id := range m.completed {
		if id == externalID {
			return false, nil
		}
	}
	m.completed = append(m.completed, externalID)
	return true, nil
}

type publishedEvent struct {
	subject string
	payload any
}

type memPublisher struct {
	events []publishedEvent
	err    error
}

func (m *memPublisher) Publish(_ context.Context, subject string, payload any) error {
	m.events = append(m.events, publishedEvent{subject, payload})
	return m.err
}

func (m *memPublisher) Close() error { return nil }

type notifications []cart.Notification

func (n *notifications) Notify(x cart.Notification) { *n = append(*n, x) }

func (n notifications) levels() []cart.Level {
	out := make([]cart.Level, 0, len(n))
	for _, x := range n {
		out = append(out, x.Level)
	}
	return out
}

func fixedNow() time.Time { return time.Date(2024, 12, 16, 10, 0, 0, 0, time.UTC) }

func filledStore(t *testing.T, n *notifications) *cart.Store {
	t.Helper()
	s := cart.NewStore(cart.WithNotifier(n))
	_, err := s.Add(cart.Product{ID: "a", Name: "Almond Box", Price: decimal.NewNullDecimal(decimal.RequireFromString("12.50"))}, 2)
	require.NoError(t, err)
	*n = nil
	return s
}

func TestCheckoutSuccess(t *testing.T) {
	var notes notifications
	store := filledStore(t, &notes)
	before := store.Snapshot()

	proc := &fakeProcessor{session: Session{ID: "cs_1", URL: "https://pay.example/cs_1"}}
	rec := &memRecorder{}
	pub := &memPublisher{}
	svc := NewService(proc, WithRecorder(rec), WithPublisher(pub), WithCurrency("eur"), WithServiceClock(fixedNow))

	session, err := svc.Checkout(context.Background(), "sess-1", store)

	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_1", session.URL)
	assert.Equal(t, before, store.Snapshot(), "checkout leaves the cart alone")
	assert.Equal(t, []cart.Level{cart.LevelLoading}, notes.levels())
	assert.Equal(t, "Redirecting...", notes[0].Message)

	require.Len(t, proc.got, 1)
	assert.Equal(t, "sess-1", proc.got[0].SessionID)
	assert.Equal(t, before.Items, proc.got[0].Items)

	require.Len(t, rec.rows, 1)
	assert.Equal(t, models.CheckoutStatusCreated, rec.rows[0].Status)
	assert.Equal(t, "cs_1", rec.rows[0].ExternalID)
	assert.Equal(t, "eur", rec.rows[0].Currency)
	assert.Equal(t, 2, rec.rows[0].ItemCount)
	assert.True(t, decimal.RequireFromString("25").Equal(rec.rows[0].Amount))

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.SubjectCheckoutSessionCreated, pub.events[0].subject)
	evt, ok := pub.events[0].payload.(events.CheckoutSessionCreated)
	require.True(t, ok)
	assert.Equal(t, "cs_1", evt.CheckoutID)
	assert.Equal(t, fixedNow(), evt.CreatedAt)
	assert.Equal(t, []events.Item{{ProductID: "a", Quantity: 2, Price: decimal.RequireFromString("12.50")}}, evt.Items)
}

func TestCheckoutEmptyCart(t *testing.T) {
	var notes notifications
	store := cart.NewStore(cart.WithNotifier(&notes))
	proc := &fakeProcessor{}
	rec := &memRecorder{}

	_, err := NewService(proc, WithRecorder(rec)).Checkout(context.Background(), "sess-1", store)

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, proc.got)
	assert.Empty(t, rec.rows)
	assert.Equal(t, []cart.Level{cart.LevelError}, notes.levels())
}

func TestCheckoutProcessorFailure(t *testing.T) {
	var notes notifications
	store := filledStore(t, &notes)
	before := store.Snapshot()

	proc := &fakeProcessor{err: &ProcessorError{StatusCode: 402, Message: "Your card was declined."}}
	rec := &memRecorder{}
	pub := &memPublisher{}

	_, err := NewService(proc, WithRecorder(rec), WithPublisher(pub)).Checkout(context.Background(), "sess-1", store)

	var pe *ProcessorError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, before, store.Snapshot())
	assert.Equal(t, []cart.Level{cart.LevelLoading, cart.LevelError}, notes.levels())
	assert.Equal(t, "Your card was declined.", notes[1].Message)
	require.Len(t, rec.rows, 1)
	assert.Equal(t, models.CheckoutStatusFailed, rec.rows[0].Status)
	assert.NotEmpty(t, rec.rows[0].Error)
	assert.Empty(t, pub.events)
}

func TestCheckoutNetworkFailureUsesGenericMessage(t *testing.T) {
	var notes notifications
	store := filledStore(t, &notes)

	_, err := NewService(&fakeProcessor{err: errors.New("dial tcp: refused")}).Checkout(context.Background(), "sess-1", store)

	require.Error(t, err)
	assert.Equal(t, "Checkout failed. Please try again.", notes[len(notes)-1].Message)
}

func TestCheckoutPublishFailureIsNotFatal(t *testing.T) {
	var notes notifications
	store := filledStore(t, &notes)
	pub := &memPublisher{err: errors.New("nats: connection closed")}

	session, err := NewService(&fakeProcessor{session: Session{ID: "cs_2"}}, WithPublisher(pub)).
		Checkout(context.Background(), "sess-1", store)

	require.NoError(t, err)
	assert.Equal(t, "cs_2", session.ID)
	assert.Len(t, pub.events, 1)
}

func TestCompleteClearsCart(t *testing.T) {
	var notes notifications
	store := filledStore(t, &notes)
	store.SetVisible(true)
	rec := &memRecorder{}
	pub := &memPublisher{}

	err := NewService(&fakeProcessor{}, WithRecorder(rec), WithPublisher(pub), WithServiceClock(fixedNow)).
		Complete(context.Background(), "sess-1", "cs_1", store)

	require.NoError(t, err)
	state := store.Snapshot()
	assert.Empty(t, state.Items)
	assert.True(t, state.TotalPrice.IsZero())
	assert.False(t, state.Visible)
	assert.Equal(t, []cart.Level{cart.LevelSuccess}, notes.levels())
	assert.Equal(t, []string{"cs_1"}, rec.completed)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.SubjectCheckoutCompleted, pub.events[0].subject)
	assert.Equal(t, events.CheckoutCompleted{SessionID: "sess-1", CheckoutID: "cs_1", CompletedAt: fixedNow()}, pub.events[0].payload)
}

func TestCompleteWithoutOpenSession(t *testing.T) {
	rec := &memRecorder{}

	err := NewService(&fakeProcessor{}, WithRecorder(rec)).Complete(context.Background(), "gone", "cs_9", nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"cs_9"}, rec.completed)
}

func TestCompleteRedeliveryKeepsNewCart(t *testing.T) {
	recorders := map[string]Recorder{
		"audit recorder":   &memRecorder{},
		"without database": nil,
	}
	for name, rec := range recorders {
		t.Run(name, func(t *testing.T) {
			var notes notifications
			store := filledStore(t, &notes)
			pub := &memPublisher{}
			svc := NewService(&fakeProcessor{}, WithRecorder(rec), WithPublisher(pub))

			require.NoError(t, svc.Complete(context.Background(), "sess-1", "cs_1", store))
			require.Zero(t, store.Len())

			_, err := store.Add(cart.Product{ID: "m2", Name: "Rose Box", Price: decimal.NewNullDecimal(decimal.RequireFromString("3"))}, 2)
			require.NoError(t, err)
			before := store.Snapshot()
			notesBefore := len(notes)

			require.NoError(t, svc.Complete(context.Background(), "sess-1", "cs_1", store))

			assert.Equal(t, before, store.Snapshot(), "a redelivered completion leaves the new cart alone")
			assert.Len(t, notes, notesBefore)
			assert.Len(t, pub.events, 1)
		})
	}
}
