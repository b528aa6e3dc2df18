package cart_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/junaidrashid-git/storefront/cart"
)

type cartTestContext struct {
	store         *cart.Store
	notifications []cart.Notification
	before        cart.State
	err           error
}

func (c *cartTestContext) reset() {
	c.notifications = nil
	c.store = cart.NewStore(cart.WithNotifier(cart.NotifierFunc(func(n cart.Notification) {
		c.notifications = append(c.notifications, n)
	})))
	c.before = cart.State{}
	c.err = nil
}

// mark remembers the state just before an operation so "unchanged" can be checked after it.
func (c *cartTestContext) mark() {
	c.before = c.store.Snapshot()
	c.err = nil
}

func newProduct(id, name, price string) (cart.Product, error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return cart.Product{}, err
	}
	return cart.Product{ID: id, Name: name, Price: decimal.NewNullDecimal(p)}, nil
}

func (c *cartTestContext) anEmptyCart() error {
	if c.store.Len() != 0 {
		return fmt.Errorf("expected empty cart, found %d items", c.store.Len())
	}
	return nil
}

func (c *cartTestContext) iAddOfProductNamedPricedAt(qty int, id, name, price string) error {
	p, err := newProduct(id, name, price)
	if err != nil {
		return err
	}
	c.mark()
	_, c.err = c.store.Add(p, qty)
	return nil
}

func (c *cartTestContext) iAddProductWithThePendingQuantity(id, name, price string) error {
	p, err := newProduct(id, name, price)
	if err != nil {
		return err
	}
	c.mark()
	_, c.err = c.store.AddPending(p)
	return nil
}

func (c *cartTestContext) iIncrementTheQuantityOf(id string) error {
	c.mark()
	_, c.err = c.store.SetQuantity(id, cart.Increment)
	return nil
}

func (c *cartTestContext) iDecrementTheQuantityOf(id string) error {
	c.mark()
	_, c.err = c.store.SetQuantity(id, cart.Decrement)
	return nil
}

func (c *cartTestContext) iRemove(id string) error {
	c.mark()
	c.err = c.store.Remove(id)
	return nil
}

func (c *cartTestContext) iIncrementThePendingQuantity() error {
	c.store.IncrementPending()
	return nil
}

func (c *cartTestContext) iDecrementThePendingQuantity() error {
	c.store.DecrementPending()
	return nil
}

func (c *cartTestContext) theCartHoldsOf(qty int, id string) error {
	for _, it := range c.store.Items() {
		if it.ID == id {
			if it.Quantity != qty {
				return fmt.Errorf("expected %d of %s, got %d", qty, id, it.Quantity)
			}
			return nil
		}
	}
	return fmt.Errorf("%s is not in the cart", id)
}

func (c *cartTestContext) theCartIsEmpty() error {
	if n := c.store.Len(); n != 0 {
		return fmt.Errorf("expected empty cart, found %d items", n)
	}
	return nil
}

func (c *cartTestContext) theTotalPriceIs(price string) error {
	want, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	if got := c.store.Snapshot().TotalPrice; !got.Equal(want) {
		return fmt.Errorf("expected total price %s, got %s", want, got)
	}
	return nil
}

func (c *cartTestContext) theTotalQuantityIs(qty int) error {
	if got := c.store.Snapshot().TotalQuantity; got != qty {
		return fmt.Errorf("expected total quantity %d, got %d", qty, got)
	}
	return nil
}

func (c *cartTestContext) thePendingQuantityIs(qty int) error {
	if got := c.store.Snapshot().PendingQuantity; got != qty {
		return fmt.Errorf("expected pending quantity %d, got %d", qty, got)
	}
	return nil
}

func (c *cartTestContext) theOperationFailsWith(kind string) error {
	var want error
	switch kind {
	case "not found":
		want = cart.ErrNotFound
	case "invalid input":
		want = cart.ErrInvalidInput
	default:
		return fmt.Errorf("unknown failure kind %q", kind)
	}
	if !errors.Is(c.err, want) {
		return fmt.Errorf("expected %v, got %v", want, c.err)
	}
	return nil
}

func (c *cartTestContext) theCartIsUnchanged() error {
	if after := c.store.Snapshot(); !reflect.DeepEqual(c.before, after) {
		return fmt.Errorf("cart changed: before %+v, after %+v", c.before, after)
	}
	return nil
}

func (c *cartTestContext) last() (cart.Notification, error) {
	if len(c.notifications) == 0 {
		return cart.Notification{}, errors.New("no notification was emitted")
	}
	return c.notifications[len(c.notifications)-1], nil
}

func (c *cartTestContext) theLastNotificationSays(msg string) error {
	n, err := c.last()
	if err != nil {
		return err
	}
	if n.Message != msg {
		return fmt.Errorf("expected notification %q, got %q", msg, n.Message)
	}
	return nil
}

func (c *cartTestContext) theLastNotificationIsAnError() error {
	n, err := c.last()
	if err != nil {
		return err
	}
	if n.Level != cart.LevelError {
		return fmt.Errorf("expected error notification, got %s", n.Level)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^I add (-?\d+) of product "([^"]*)" named "([^"]*)" priced at ([0-9.]+)$`, tc.iAddOfProductNamedPricedAt)
	ctx.Step(`^I add product "([^"]*)" named "([^"]*)" priced at ([0-9.]+) with the pending quantity$`, tc.iAddProductWithThePendingQuantity)
	ctx.Step(`^I increment the quantity of "([^"]*)"$`, tc.iIncrementTheQuantityOf)
	ctx.Step(`^I decrement the quantity of "([^"]*)"$`, tc.iDecrementTheQuantityOf)
	ctx.Step(`^I remove "([^"]*)"$`, tc.iRemove)
	ctx.Step(`^I increment the pending quantity$`, tc.iIncrementThePendingQuantity)
	ctx.Step(`^I decrement the pending quantity$`, tc.iDecrementThePendingQuantity)

	ctx.Step(`^the cart holds (\d+) of "([^"]*)"$`, tc.theCartHoldsOf)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the total price is ([0-9.]+)$`, tc.theTotalPriceIs)
	ctx.Step(`^the total quantity is (\d+)$`, tc.theTotalQuantityIs)
	ctx.Step(`^the pending quantity is (\d+)$`, tc.thePendingQuantityIs)
	ctx.Step(`^the operation fails with "([^"]*)"$`, tc.theOperationFailsWith)
	ctx.Step(`^the cart is unchanged$`, tc.theCartIsUnchanged)
	ctx.Step(`^the last notification says "([^"]*)"$`, tc.theLastNotificationSays)
	ctx.Step(`^the last notification is an error$`, tc.theLastNotificationIsAnError)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
