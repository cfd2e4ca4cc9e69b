package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
)

// Line is one product in the cart. PriceAtSaleCents is snapshotted when the
// line is first added and never follows later catalog price edits.
type Line struct {
	ProductID        uuid.UUID `json:"product_id"`
	Name             string    `json:"name"`
	Code             string    `json:"code"`
	Quantity         int       `json:"quantity"`
	PriceAtSaleCents int64     `json:"price_at_sale_cents"`
}

// TotalCents is quantity times the snapshotted unit price.
func (l Line) TotalCents() int64 {
	return int64(l.Quantity) * l.PriceAtSaleCents
}

// Cart is the working set of lines for one register session. Lines are unique
// by product id and keep insertion order.
type Cart struct {
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{Lines: []Line{}}
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Line returns the line for productID if present.
func (c *Cart) Line(productID uuid.UUID) (Line, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Lines[i], true
	}
	return Line{}, false
}

// AddItem increments an existing line by one or appends a new line at quantity
// one. The cart is left unchanged when stock cannot cover the result.
func (c *Cart) AddItem(product *models.Product) error {
	if i := c.indexOf(product.ID); i >= 0 {
		next := c.Lines[i].Quantity + 1
		if next > product.Stock {
			return StockExceededError(product, next)
		}
		c.Lines[i].Quantity = next
		c.touch()
		return nil
	}

	if product.Stock <= 0 {
		return OutOfStockError(product, 1)
	}
	c.Lines = append(c.Lines, Line{
		ProductID:        product.ID,
		Name:             product.Name,
		Code:             product.Code,
		Quantity:         1,
		PriceAtSaleCents: product.SalePriceCents,
	})
	c.touch()
	return nil
}

// SetQuantity checks quantity against the product's current stock. Zero or
// negative quantities remove the line; a product not yet in the cart is
// appended with the requested quantity.
func (c *Cart) SetQuantity(product *models.Product, quantity int) error {
	if quantity > product.Stock {
		return StockExceededError(product, quantity)
	}
	if quantity <= 0 {
		c.RemoveItem(product.ID)
		return nil
	}

	if i := c.indexOf(product.ID); i >= 0 {
		c.Lines[i].Quantity = quantity
		c.touch()
		return nil
	}
	c.Lines = append(c.Lines, Line{
		ProductID:        product.ID,
		Name:             product.Name,
		Code:             product.Code,
		Quantity:         quantity,
		PriceAtSaleCents: product.SalePriceCents,
	})
	c.touch()
	return nil
}

// RemoveItem drops the line for productID. Absent products are a no-op.
func (c *Cart) RemoveItem(productID uuid.UUID) {
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	c.touch()
}

// Total sums every line total.
func (c *Cart) Total() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.TotalCents()
	}
	return total
}

// ItemCount sums line quantities.
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = []Line{}
	c.touch()
}

// Clone returns a deep copy so callers can validate a snapshot while the
// original stays untouched.
func (c *Cart) Clone() *Cart {
	out := &Cart{Lines: make([]Line, len(c.Lines)), UpdatedAt: c.UpdatedAt}
	copy(out.Lines, c.Lines)
	return out
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
