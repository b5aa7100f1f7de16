// Package cart merges shopper actions into a list of line items. A cart lives
// in memory for a single session and is never persisted.
package cart

import (
	"sync"
	"time"

	"h2o-shop/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultConfirmationDelay is how long the checkout confirmation stays visible.
const DefaultConfirmationDelay = 3000 * time.Millisecond

// Key identifies a line item. A zero VariantID (Valid == false) is the
// no-variant line of a product and is distinct from every variant line.
type Key struct {
	ProductID uuid.UUID
	VariantID uuid.NullUUID
}

// String renders the key as a stable line id, e.g. "<product>" or
// "<product>:<variant>".
func (k Key) String() string {
	if !k.VariantID.Valid {
		return k.ProductID.String()
	}
	return k.ProductID.String() + ":" + k.VariantID.UUID.String()
}

// Line is one entry of the cart.
type Line struct {
	ID          string     `json:"id"`
	ProductID   uuid.UUID  `json:"product_id"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
	VariantName string     `json:"variant_name,omitempty"`
	Name        string     `json:"name"`
	Price       float64    `json:"price"`
	Image       string     `json:"image"`
	Quantity    int        `json:"quantity"`

	key Key
}

// Key returns the merge identity of the line.
func (l Line) Key() Key {
	return l.key
}

// Subtotal is price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is safe for concurrent use; the confirmation reset runs on a timer
// goroutine.
type Cart struct {
	mu        sync.Mutex
	lines     []Line
	confirmed bool
	delay     time.Duration
	timer     *time.Timer
}

// Option configures a Cart.
type Option func(*Cart)

// WithConfirmationDelay overrides DefaultConfirmationDelay.
func WithConfirmationDelay(d time.Duration) Option {
	return func(c *Cart) {
		c.delay = d
	}
}

// New returns an empty cart.
func New(opts ...Option) *Cart {
	c := &Cart{delay: DefaultConfirmationDelay}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// KeyFor returns the line identity for product p with optional variant v.
func KeyFor(p *domain.Product, v *domain.Variant) Key {
	k := Key{ProductID: p.ID}
	if v != nil {
		k.VariantID = uuid.NullUUID{UUID: v.ID, Valid: true}
	}
	return k
}

// AddToCart adds one unit of p, or of its variant v when v is not nil. An
// existing line with the same key has its quantity incremented; its price,
// name and image are left as they were when the line was created.
func (c *Cart) AddToCart(p *domain.Product, v *domain.Variant) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := KeyFor(p, v)
	for i := range c.lines {
		if c.lines[i].key == key {
			c.lines[i].Quantity++
			return
		}
	}

	c.lines = append(c.lines, newLine(p, v, key))
}

func newLine(p *domain.Product, v *domain.Variant, key Key) Line {
	line := Line{
		ID:        key.String(),
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.PrimaryImage(),
		Quantity:  1,
		key:       key,
	}

	if v != nil {
		id := v.ID
		line.VariantID = &id
		line.VariantName = v.Name
		line.Name = p.Name + " (" + v.Name + ")"
		line.Price = v.Price
		if v.Image != "" {
			line.Image = v.Image
		}
	}

	return line
}

// RemoveFromCart drops every line of the product, whatever its variant.
func (c *Cart) RemoveFromCart(productID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.lines[:0]
	for _, l := range c.lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	c.lines = kept
}

// RemoveLine drops the single line identified by key.
func (c *Cart) RemoveLine(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, l := range c.lines {
		if l.key == key {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// UpdateQuantity adds delta to every line of the product. A change that would
// take a line to zero or below is ignored for that line.
func (c *Cart) UpdateQuantity(productID uuid.UUID, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			applyDelta(&c.lines[i], delta)
		}
	}
}

// UpdateLineQuantity adds delta to the line identified by key, with the same
// floor as UpdateQuantity.
func (c *Cart) UpdateLineQuantity(key Key, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].key == key {
			applyDelta(&c.lines[i], delta)
			return
		}
	}
}

func applyDelta(l *Line, delta int) {
	if q := l.Quantity + delta; q > 0 {
		l.Quantity = q
	}
}

// Checkout empties the cart and shows the confirmation until the configured
// delay elapses. A second checkout restarts the delay.
func (c *Cart) Checkout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	c.confirmed = true

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		c.confirmed = false
		c.mu.Unlock()
	})
}

// Confirmed reports whether the checkout confirmation is visible.
func (c *Cart) Confirmed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmed
}

// Lines returns a copy of the line items in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Total sums every line subtotal.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
