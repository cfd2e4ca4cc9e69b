package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
)

type stubProducts struct {
	byID map[uuid.UUID]*models.Product
}

func newStubProducts(products ...*models.Product) *stubProducts {
	s := &stubProducts{byID: map[uuid.UUID]*models.Product{}}
	for _, p := range products {
		s.byID[p.ID] = p
	}
	return s
}

func (s *stubProducts) GetProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubProducts) FindByCode(_ context.Context, code string) (*models.Product, error) {
	for _, p := range s.byID {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no product with that code")
}

func (s *stubProducts) FindByBarcode(_ context.Context, barcode string) (*models.Product, error) {
	for _, p := range s.byID {
		if p.Barcode != nil && *p.Barcode == barcode {
			return p, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no product with that barcode")
}

func TestServiceAddItemByEveryKey(t *testing.T) {
	barcode := "123"
	p := testProduct(10, 100)
	p.Barcode = &barcode
	svc, err := NewService(NewMemoryStore(), newStubProducts(p))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	employeeID := uuid.New()

	inputs := []AddItemInput{{ProductID: &p.ID}, {Code: p.Code}, {Barcode: barcode}}
	for _, input := range inputs {
		if _, err := svc.AddItem(ctx, employeeID, input); err != nil {
			t.Fatalf("add %+v: %v", input, err)
		}
	}

	c, err := svc.Get(ctx, employeeID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(c.Lines) != 1 || c.Lines[0].Quantity != 3 {
		t.Fatalf("expected one line with quantity 3, got %+v", c.Lines)
	}
}

func TestServiceAddItemRequiresOneKey(t *testing.T) {
	p := testProduct(1, 100)
	svc, _ := NewService(NewMemoryStore(), newStubProducts(p))

	_, err := svc.AddItem(context.Background(), uuid.New(), AddItemInput{})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = svc.AddItem(context.Background(), uuid.New(), AddItemInput{ProductID: &p.ID, Code: p.Code})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceFailedMutationIsNotSaved(t *testing.T) {
	p := testProduct(1, 100)
	store := NewMemoryStore()
	svc, _ := NewService(store, newStubProducts(p))
	ctx := context.Background()
	employeeID := uuid.New()

	if _, err := svc.AddItem(ctx, employeeID, AddItemInput{ProductID: &p.ID}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := svc.SetQuantity(ctx, employeeID, p.ID, 5); !pkgerrors.Is(err, pkgerrors.CodeStockExceeded) {
		t.Fatalf("expected stock exceeded, got %v", err)
	}

	c, _ := store.Load(ctx, employeeID)
	if c.Lines[0].Quantity != 1 {
		t.Fatalf("expected stored quantity 1, got %d", c.Lines[0].Quantity)
	}
}

func TestServiceSetQuantityZeroSkipsLookup(t *testing.T) {
	svc, _ := NewService(NewMemoryStore(), newStubProducts())

	if _, err := svc.SetQuantity(context.Background(), uuid.New(), uuid.New(), 0); err != nil {
		t.Fatalf("expected removal of unknown product to succeed, got %v", err)
	}
}

func TestServiceConcurrentAddsDoNotLoseUpdates(t *testing.T) {
	p := testProduct(100, 100)
	svc, _ := NewService(NewMemoryStore(), newStubProducts(p))
	ctx := context.Background()
	employeeID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.AddItem(ctx, employeeID, AddItemInput{ProductID: &p.ID})
		}()
	}
	wg.Wait()

	c, _ := svc.Get(ctx, employeeID)
	if c.Lines[0].Quantity != 20 {
		t.Fatalf("expected quantity 20, got %d", c.Lines[0].Quantity)
	}
}

func TestServiceClear(t *testing.T) {
	p := testProduct(2, 100)
	svc, _ := NewService(NewMemoryStore(), newStubProducts(p))
	ctx := context.Background()
	employeeID := uuid.New()
	_, _ = svc.AddItem(ctx, employeeID, AddItemInput{ProductID: &p.ID})

	if err := svc.Clear(ctx, employeeID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	c, _ := svc.Get(ctx, employeeID)
	if !c.IsEmpty() {
		t.Fatal("expected empty cart after clear")
	}
}
