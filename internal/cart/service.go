package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
)

type productLoader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByCode(ctx context.Context, code string) (*models.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*models.Product, error)
}

// Service exposes register cart operations keyed by employee.
type Service interface {
	Get(ctx context.Context, employeeID uuid.UUID) (*Cart, error)
	AddItem(ctx context.Context, employeeID uuid.UUID, input AddItemInput) (*Cart, error)
	SetQuantity(ctx context.Context, employeeID, productID uuid.UUID, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, employeeID, productID uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, employeeID uuid.UUID) error
	// Update runs fn against the stored cart under the employee's cart lock
	// and saves the result when fn succeeds.
	Update(ctx context.Context, employeeID uuid.UUID, fn func(*Cart) error) (*Cart, error)
}

// AddItemInput identifies the scanned product. Exactly one field is set.
type AddItemInput struct {
	ProductID *uuid.UUID
	Code      string
	Barcode   string
}

type service struct {
	store    Store
	products productLoader

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewService builds a cart service backed by the provided store.
func NewService(store Store, products productLoader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{store: store, products: products, locks: map[uuid.UUID]*sync.Mutex{}}, nil
}

func (s *service) lockFor(employeeID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[employeeID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[employeeID] = l
	}
	return l
}

func (s *service) Get(ctx context.Context, employeeID uuid.UUID) (*Cart, error) {
	cart, err := s.store.Load(ctx, employeeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) Update(ctx context.Context, employeeID uuid.UUID, fn func(*Cart) error) (*Cart, error) {
	l := s.lockFor(employeeID)
	l.Lock()
	defer l.Unlock()

	if atomic, ok := s.store.(Updater); ok {
		var fnErr error
		cart, err := atomic.Update(ctx, employeeID, func(c *Cart) error {
			fnErr = fn(c)
			return fnErr
		})
		if fnErr != nil {
			return nil, fnErr
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
		}
		return cart, nil
	}

	cart, err := s.store.Load(ctx, employeeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, employeeID, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return cart, nil
}

func (s *service) AddItem(ctx context.Context, employeeID uuid.UUID, input AddItemInput) (*Cart, error) {
	product, err := s.resolveProduct(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, employeeID, func(c *Cart) error {
		return c.AddItem(product)
	})
}

func (s *service) SetQuantity(ctx context.Context, employeeID, productID uuid.UUID, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, employeeID, productID)
	}
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, employeeID, func(c *Cart) error {
		return c.SetQuantity(product, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, employeeID, productID uuid.UUID) (*Cart, error) {
	return s.Update(ctx, employeeID, func(c *Cart) error {
		c.RemoveItem(productID)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, employeeID uuid.UUID) error {
	l := s.lockFor(employeeID)
	l.Lock()
	defer l.Unlock()
	if err := s.store.Delete(ctx, employeeID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) resolveProduct(ctx context.Context, input AddItemInput) (*models.Product, error) {
	code, barcode := strings.TrimSpace(input.Code), strings.TrimSpace(input.Barcode)
	set := 0
	if input.ProductID != nil {
		set++
	}
	if code != "" {
		set++
	}
	if barcode != "" {
		set++
	}
	if set != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one of product_id, code or barcode is required")
	}

	switch {
	case input.ProductID != nil:
		return s.products.GetProduct(ctx, *input.ProductID)
	case code != "":
		return s.products.FindByCode(ctx, code)
	default:
		return s.products.FindByBarcode(ctx, barcode)
	}
}
