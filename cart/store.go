package cart

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	Increment Direction = "inc"
	Decrement Direction = "dec"
)

// MaxLineQuantity caps the quantity of a single line item and the pending selector.
const MaxLineQuantity = 999

// ParseDirection accepts "inc"/"dec" as well as the long forms.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inc", "increment":
		return Increment, nil
	case "dec", "decrement":
		return Decrement, nil
	default:
		return "", fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, s)
	}
}

// Product is the part of a catalog record the cart needs. Price is nullable so a record
// that arrived without a price can be told apart from a free one.
type Product struct {
	ID     string
	Name   string
	Slug   string
	Images []string
	Price  decimal.NullDecimal
}

// LineItem is one product in the cart. Price is the unit price captured when the item was first added.
type LineItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Slug     string          `json:"slug,omitempty"`
	Images   []string        `json:"images,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Subtotal is price * quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func (li LineItem) clone() LineItem {
	if li.Images != nil {
		li.Images = append([]string(nil), li.Images...)
	}
	return li
}

// State is a read-only copy of a Store taken at one instant.
type State struct {
	Items           []LineItem      `json:"items"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	TotalQuantity   int             `json:"total_quantity"`
	PendingQuantity int             `json:"pending_quantity"`
	Visible         bool            `json:"visible"`
}

// Store owns the cart of a single shopper session. All methods are safe for concurrent use;
// each one runs to completion before the next starts.
type Store struct {
	mu            sync.Mutex
	order         []string
	items         map[string]*LineItem
	totalPrice    decimal.Decimal
	totalQuantity int
	pending       int
	visible       bool

	notifier Notifier
	now      func() time.Time
}

type Option func(*Store)

func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns an empty cart with the pending quantity at 1.
func NewStore(opts ...Option) *Store {
	s := &Store{
		items:      make(map[string]*LineItem),
		totalPrice: decimal.Zero,
		pending:    1,
		notifier:   nopNotifier{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add puts quantity units of p into the cart. A product already in the cart keeps the unit price
// it was first added with.
func (s *Store) Add(p Product, quantity int) (LineItem, error) {
	s.mu.Lock()
	item, err := s.addLocked(p, quantity)
	s.mu.Unlock()
	return s.afterAdd(p, quantity, item, err)
}

// AddPending adds p using the current pending quantity.
func (s *Store) AddPending(p Product) (LineItem, error) {
	s.mu.Lock()
	quantity := s.pending
	item, err := s.addLocked(p, quantity)
	s.mu.Unlock()
	return s.afterAdd(p, quantity, item, err)
}

// BuyNow adds p with the pending quantity and opens the cart.
func (s *Store) BuyNow(p Product) (LineItem, error) {
	s.mu.Lock()
	quantity := s.pending
	item, err := s.addLocked(p, quantity)
	if err == nil {
		s.visible = true
	}
	s.mu.Unlock()
	return s.afterAdd(p, quantity, item, err)
}

func (s *Store) afterAdd(p Product, quantity int, item LineItem, err error) (LineItem, error) {
	if err != nil {
		s.notifyError(err)
		return LineItem{}, err
	}
	s.notify(LevelSuccess, fmt.Sprintf("%d %s added to the cart.", quantity, p.Name))
	return item, nil
}

func (s *Store) addLocked(p Product, quantity int) (LineItem, error) {
	if err := validate(p, quantity); err != nil {
		return LineItem{}, err
	}

	if existing, ok := s.items[p.ID]; ok {
		if existing.Quantity > MaxLineQuantity-quantity {
			return LineItem{}, fmt.Errorf("%w: %s would exceed %d units", ErrInvalidInput, p.ID, MaxLineQuantity)
		}
		existing.Quantity += quantity
		s.recompute()
		return existing.clone(), nil
	}

	item := &LineItem{
		ID:       p.ID,
		Name:     p.Name,
		Slug:     p.Slug,
		Images:   append([]string(nil), p.Images...),
		Price:    p.Price.Decimal,
		Quantity: quantity,
	}
	s.items[p.ID] = item
	s.order = append(s.order, p.ID)
	s.recompute()
	return item.clone(), nil
}

func validate(p Product, quantity int) error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("%w: product id is required", ErrInvalidInput)
	case !p.Price.Valid:
		return fmt.Errorf("%w: product %s has no price", ErrInvalidInput, p.ID)
	case p.Price.Decimal.IsNegative():
		return fmt.Errorf("%w: product %s has a negative price", ErrInvalidInput, p.ID)
	case quantity < 1:
		return fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidInput, quantity)
	case quantity > MaxLineQuantity:
		return fmt.Errorf("%w: quantity must be at most %d, got %d", ErrInvalidInput, MaxLineQuantity, quantity)
	}
	return nil
}

// Remove deletes the line item for productID.
func (s *Store) Remove(productID string) error {
	s.mu.Lock()
	err := s.removeLocked(productID)
	s.mu.Unlock()
	if err != nil {
		s.notifyError(err)
	}
	return err
}

func (s *Store) removeLocked(productID string) error {
	if _, ok := s.items[productID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, productID)
	}
	delete(s.items, productID)
	for i, id := range s.order {
		if id == productID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.recompute()
	return nil
}

// SetQuantity moves the quantity of productID one step. Decrementing an item at quantity 1 does nothing;
// removal is a separate call.
func (s *Store) SetQuantity(productID string, d Direction) (LineItem, error) {
	s.mu.Lock()
	item, err := s.setQuantityLocked(productID, d)
	s.mu.Unlock()
	if err != nil {
		s.notifyError(err)
		return LineItem{}, err
	}
	return item, nil
}

func (s *Store) setQuantityLocked(productID string, d Direction) (LineItem, error) {
	item, ok := s.items[productID]
	if !ok {
		return LineItem{}, fmt.Errorf("%w: %s", ErrNotFound, productID)
	}

	switch d {
	case Increment:
		if item.Quantity >= MaxLineQuantity {
			return LineItem{}, fmt.Errorf("%w: %s is already at %d units", ErrInvalidInput, productID, MaxLineQuantity)
		}
		item.Quantity++
	case Decrement:
		if item.Quantity <= 1 {
			return item.clone(), nil
		}
		item.Quantity--
	default:
		return LineItem{}, fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, d)
	}

	s.recompute()
	return item.clone(), nil
}

// IncrementPending raises the quantity used by the next AddPending and returns the new value.
// It stops at MaxLineQuantity.
func (s *Store) IncrementPending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending < MaxLineQuantity {
		s.pending++
	}
	return s.pending
}

// DecrementPending lowers the pending quantity, never below 1.
func (s *Store) DecrementPending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending > 1 {
		s.pending--
	}
	return s.pending
}

func (s *Store) ResetQuantitySelectors() {
	s.mu.Lock()
	s.pending = 1
	s.mu.Unlock()
}

// Clear empties the cart and resets the pending quantity.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = make(map[string]*LineItem)
	s.order = nil
	s.pending = 1
	s.recompute()
	s.mu.Unlock()
}

func (s *Store) SetVisible(visible bool) {
	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
}

// Snapshot copies the current state. Items are in the order they were first added.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Items:           s.itemsLocked(),
		TotalPrice:      s.totalPrice,
		TotalQuantity:   s.totalQuantity,
		PendingQuantity: s.pending,
		Visible:         s.visible,
	}
}

func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsLocked()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *Store) itemsLocked() []LineItem {
	out := make([]LineItem, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id].clone())
	}
	return out
}

// recompute rebuilds both aggregates from the items; every mutation ends with it.
func (s *Store) recompute() {
	total := decimal.Zero
	quantity := 0
	for _, id := range s.order {
		item := s.items[id]
		total = total.Add(item.Subtotal())
		quantity += item.Quantity
	}
	s.totalPrice = total
	s.totalQuantity = quantity
}

// Notify lets collaborators (checkout, for one) talk to the same shopper through the store's notifier.
func (s *Store) Notify(level Level, message string) {
	s.notify(level, message)
}

func (s *Store) notify(level Level, message string) {
	s.notifier.Notify(Notification{Level: level, Message: message, At: s.now()})
}

func (s *Store) notifyError(err error) {
	s.notify(LevelError, err.Error())
}
