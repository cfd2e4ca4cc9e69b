package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/internal/cart"
	"github.com/angelmondragon/stockpos-backend/internal/receipts"
	"github.com/angelmondragon/stockpos-backend/pkg/db"
	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	"github.com/angelmondragon/stockpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
	"github.com/angelmondragon/stockpos-backend/pkg/logger"
	"github.com/angelmondragon/stockpos-backend/pkg/metrics"
	"github.com/angelmondragon/stockpos-backend/pkg/outbox"
	"github.com/angelmondragon/stockpos-backend/pkg/outbox/payloads"
)

const (
	defaultPersistTimeout  = 10 * time.Second
	defaultReceiptTimeout  = 5 * time.Second
	defaultReceiptAttempts = 3

	verifyHint = "verify before retrying"
)

// receipt_number unique index names as reported by postgres and sqlite.
var receiptConstraints = []string{"idx_sales_receipt_number", "sales.receipt_number"}

// State is a settlement lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateBuilding   State = "building"
	StatePersisting State = "persisting"
	StateCompleted  State = "completed"
)

var allowedTransitions = map[State][]State{
	StateIdle:       {StateValidating},
	StateValidating: {StateBuilding, StateIdle},
	StateBuilding:   {StatePersisting, StateIdle},
	StatePersisting: {StateCompleted, StateIdle},
}

func canTransition(from, to State) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Observer is notified of every state change of a settlement.
type Observer func(ctx context.Context, from, to State)

// Config bounds the settlement's suspension points.
type Config struct {
	PersistTimeout  time.Duration
	ReceiptTimeout  time.Duration
	ReceiptAttempts int
}

// Dependencies wires the coordinator's collaborators. Catalog, Sales, Stock and
// Tx are required; the rest fall back to no-op or in-process defaults.
type Dependencies struct {
	Catalog  CatalogProvider
	Sales    SalesStore
	Stock    StockWriter
	Tx       TxRunner
	Outbox   outbox.Emitter
	Sink     NotificationSink
	Renderer ReceiptRenderer
	Lock     Locker
	Builder  *Builder
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
	Observer Observer
	Clock    func() time.Time
	Config   Config
}

// SettleInput carries the payment choice and per-call timeout overrides.
type SettleInput struct {
	EmployeeID       uuid.UUID
	RoleID           *uuid.UUID
	PaymentMethod    enums.PaymentMethod
	PaymentReference *string
	CustomerID       *uuid.UUID
	PersistTimeout   time.Duration
	ReceiptTimeout   time.Duration
}

// Warning is a non-fatal problem attached to a completed settlement.
type Warning struct {
	Code    pkgerrors.Code `json:"code"`
	Message string         `json:"message"`
}

// Result is the outcome of a completed settlement.
type Result struct {
	Sale     *models.Sale
	Receipt  *receipts.Receipt
	Warnings []Warning
}

// PersistenceDetails accompanies PERSISTENCE_FAILURE errors.
type PersistenceDetails struct {
	Ambiguous     bool      `json:"ambiguous"`
	Hint          string    `json:"hint,omitempty"`
	SaleID        uuid.UUID `json:"sale_id"`
	ReceiptNumber string    `json:"receipt_number"`
}

// Coordinator runs the settlement state machine.
type Coordinator struct {
	catalog  CatalogProvider
	sales    SalesStore
	stock    StockWriter
	tx       TxRunner
	outbox   outbox.Emitter
	sink     NotificationSink
	renderer ReceiptRenderer
	lock     Locker
	builder  *Builder
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	observer Observer
	now      func() time.Time
	cfg      Config
}

func NewCoordinator(deps Dependencies) (*Coordinator, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog provider required")
	}
	if deps.Sales == nil {
		return nil, fmt.Errorf("sales store required")
	}
	if deps.Stock == nil {
		return nil, fmt.Errorf("stock writer required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	c := &Coordinator{
		catalog:  deps.Catalog,
		sales:    deps.Sales,
		stock:    deps.Stock,
		tx:       deps.Tx,
		outbox:   deps.Outbox,
		sink:     deps.Sink,
		renderer: deps.Renderer,
		lock:     deps.Lock,
		builder:  deps.Builder,
		metrics:  deps.Metrics,
		logg:     deps.Logger,
		observer: deps.Observer,
		now:      deps.Clock,
		cfg:      deps.Config,
	}
	if c.lock == nil {
		c.lock = NewLocalLock()
	}
	if c.builder == nil {
		c.builder = NewBuilder()
	}
	if c.logg == nil {
		c.logg = logger.Nop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.cfg.PersistTimeout <= 0 {
		c.cfg.PersistTimeout = defaultPersistTimeout
	}
	if c.cfg.ReceiptTimeout <= 0 {
		c.cfg.ReceiptTimeout = defaultReceiptTimeout
	}
	if c.cfg.ReceiptAttempts <= 0 {
		c.cfg.ReceiptAttempts = defaultReceiptAttempts
	}
	return c, nil
}

type run struct {
	ctx      context.Context
	state    State
	observer Observer
}

func (r *run) to(next State) {
	if !canTransition(r.state, next) {
		panic(fmt.Sprintf("checkout: illegal transition %s -> %s", r.state, next))
	}
	prev := r.state
	r.state = next
	if r.observer != nil {
		r.observer(r.ctx, prev, next)
	}
}

// Settle validates the cart against current stock, records the sale and its
// stock decrements atomically, then notifies and renders the receipt. On
// success the cart is cleared; on failure it is left untouched.
func (c *Coordinator) Settle(ctx context.Context, current *cart.Cart, input SettleInput) (*Result, error) {
	started := c.now()
	if current == nil || current.IsEmpty() {
		c.metrics.ObserveSettlement(metrics.OutcomeRejected, c.now().Sub(started))
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	if input.EmployeeID == uuid.Nil {
		c.metrics.ObserveSettlement(metrics.OutcomeRejected, c.now().Sub(started))
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id is required")
	}
	if !input.PaymentMethod.IsValid() {
		c.metrics.ObserveSettlement(metrics.OutcomeRejected, c.now().Sub(started))
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	if err := ctx.Err(); err != nil {
		c.metrics.ObserveSettlement(metrics.OutcomeAbandoned, c.now().Sub(started))
		return nil, err
	}

	release, err := c.lock.Acquire(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.metrics.ObserveSettlement(metrics.OutcomeAbandoned, c.now().Sub(started))
			return nil, ctxErr
		}
		c.metrics.ObserveSettlement(metrics.OutcomeUnavailable, c.now().Sub(started))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout is busy, try again")
	}
	defer release()

	// Past this point the settlement runs to a terminal state.
	work := context.WithoutCancel(ctx)
	work = c.logg.WithEmployeeID(work, input.EmployeeID.String())
	persistTimeout := pick(input.PersistTimeout, c.cfg.PersistTimeout)
	r := &run{ctx: work, state: StateIdle, observer: c.observer}

	r.to(StateValidating)
	vctx, cancel := context.WithTimeout(work, persistTimeout)
	snapshot, err := Validate(vctx, current, c.catalog)
	cancel()
	if err != nil {
		r.to(StateIdle)
		c.metrics.ObserveSettlement(outcomeFor(err), c.now().Sub(started))
		return nil, err
	}

	r.to(StateBuilding)
	sale, err := c.builder.Build(current, snapshot.Products, BuildInput{
		EmployeeID:       input.EmployeeID,
		PaymentMethod:    input.PaymentMethod,
		PaymentReference: input.PaymentReference,
		CustomerID:       input.CustomerID,
		Now:              c.now(),
	})
	if err != nil {
		r.to(StateIdle)
		c.metrics.ObserveSettlement(outcomeFor(err), c.now().Sub(started))
		return nil, err
	}
	work = c.logg.WithSaleID(work, sale.ID.String())

	r.to(StatePersisting)
	if err := c.persist(work, sale, snapshot, input, persistTimeout); err != nil {
		r.to(StateIdle)
		c.metrics.ObserveSettlement(outcomeFor(err), c.now().Sub(started))
		c.logg.Error(work, "settlement failed", err)
		return nil, err
	}
	release()
	r.to(StateCompleted)

	result := &Result{Sale: sale}
	event := saleCompletedEvent(sale, snapshot, input.PaymentMethod)
	if c.sink != nil {
		if err := c.sink.Publish(work, EventSaleCompleted, event); err != nil {
			c.logg.Error(work, "sale completed notification failed", err)
		}
	}

	receipt, err := c.renderReceipt(work, sale, pick(input.ReceiptTimeout, c.cfg.ReceiptTimeout))
	if err != nil {
		c.metrics.IncReceiptFailure()
		c.logg.Error(work, "receipt rendering failed", err)
		result.Warnings = append(result.Warnings, Warning{
			Code:    pkgerrors.CodeReceiptRenderFailure,
			Message: "sale completed but the receipt could not be rendered",
		})
	}
	result.Receipt = receipt

	current.Clear()
	c.metrics.ObserveSettlement(metrics.OutcomeCompleted, c.now().Sub(started))
	c.logg.Info(c.logg.WithFields(work, map[string]any{
		"receipt_number": sale.ReceiptNumber,
		"total_cents":    sale.TotalCents,
		"item_count":     len(sale.Items),
	}), "sale settled")
	return result, nil
}

func (c *Coordinator) persist(ctx context.Context, sale *models.Sale, snapshot *Snapshot, input SettleInput, timeout time.Duration) error {
	for attempt := 1; ; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err := c.tx.WithTx(pctx, func(tx *gorm.DB) error {
			if err := c.sales.AppendSale(pctx, tx, sale); err != nil {
				return err
			}
			if err := c.stock.ApplyStockDeltas(pctx, tx, snapshot.Deltas); err != nil {
				return err
			}
			return c.emitEvents(pctx, tx, sale, snapshot, input)
		})
		timedOut := errors.Is(pctx.Err(), context.DeadlineExceeded)
		cancel()
		if err == nil {
			return nil
		}

		if isReceiptCollision(err) {
			if attempt < c.cfg.ReceiptAttempts {
				c.metrics.IncReceiptNumberRetry()
				previous := sale.ReceiptNumber
				sale.ReceiptNumber = c.builder.ReceiptNumber(sale.SaleTime)
				c.logg.Warn(c.logg.WithFields(ctx, map[string]any{
					"previous_receipt_number": previous,
					"attempt":                 attempt,
				}), "receipt number collision, regenerating")
				continue
			}
			return pkgerrors.Wrap(pkgerrors.CodeDuplicateReceipt, err, "could not allocate a unique receipt number")
		}

		var conflict *StockConflictError
		if errors.As(err, &conflict) {
			return c.stockConflict(ctx, conflict.Delta, snapshot)
		}

		details := PersistenceDetails{SaleID: sale.ID, ReceiptNumber: sale.ReceiptNumber}
		if timedOut || errors.Is(err, context.DeadlineExceeded) {
			details.Ambiguous = true
			details.Hint = verifyHint
			return pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "sale write timed out, "+verifyHint).WithDetails(details)
		}
		return pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "sale could not be saved").WithDetails(details)
	}
}

// stockConflict re-reads the product so the error reports current stock.
func (c *Coordinator) stockConflict(ctx context.Context, delta StockDelta, snapshot *Snapshot) error {
	product := snapshot.Products[delta.ProductID]
	if fresh, err := c.catalog.GetProduct(ctx, delta.ProductID); err == nil {
		product = fresh
	} else if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		return cart.ProductMissingError(cart.Line{
			ProductID: delta.ProductID,
			Name:      delta.ProductName,
			Code:      delta.Code,
			Quantity:  delta.Quantity,
		})
	}
	if product == nil {
		product = &models.Product{ID: delta.ProductID, Name: delta.ProductName, Code: delta.Code}
	}
	return cart.StockExceededError(product, delta.Quantity)
}

func (c *Coordinator) emitEvents(ctx context.Context, tx *gorm.DB, sale *models.Sale, snapshot *Snapshot, input SettleInput) error {
	if c.outbox == nil {
		return nil
	}
	actor := &outbox.ActorRef{EmployeeID: input.EmployeeID, RoleID: input.RoleID}
	if err := c.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSaleCompleted,
		AggregateType: enums.AggregateSale,
		AggregateID:   sale.ID,
		Actor:         actor,
		Data:          saleCompletedEvent(sale, snapshot, input.PaymentMethod),
		OccurredAt:    sale.SaleTime,
	}); err != nil {
		return fmt.Errorf("emit sale completed: %w", err)
	}
	for _, delta := range snapshot.Deltas {
		if !crossedMinimum(delta) {
			continue
		}
		if err := c.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLowStock,
			AggregateType: enums.AggregateProduct,
			AggregateID:   delta.ProductID,
			Actor:         actor,
			Data: payloads.LowStockEvent{
				ProductID: delta.ProductID,
				Code:      delta.Code,
				Name:      delta.ProductName,
				Stock:     delta.NewStock,
				MinStock:  delta.MinStock,
				SaleID:    sale.ID,
			},
			OccurredAt: sale.SaleTime,
		}); err != nil {
			return fmt.Errorf("emit low stock: %w", err)
		}
	}
	return nil
}

type renderOutcome struct {
	receipt *receipts.Receipt
	err     error
}

func (c *Coordinator) renderReceipt(ctx context.Context, sale *models.Sale, timeout time.Duration) (*receipts.Receipt, error) {
	if c.renderer == nil {
		return nil, nil
	}
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan renderOutcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- renderOutcome{err: fmt.Errorf("receipt renderer panic: %v", rec)}
			}
		}()
		receipt, err := c.renderer.Render(rctx, sale)
		done <- renderOutcome{receipt: receipt, err: err}
	}()

	select {
	case out := <-done:
		return out.receipt, out.err
	case <-rctx.Done():
		return nil, rctx.Err()
	}
}

func saleCompletedEvent(sale *models.Sale, snapshot *Snapshot, method enums.PaymentMethod) payloads.SaleCompletedEvent {
	lines := make([]payloads.SaleLine, 0, len(snapshot.Deltas))
	itemCount := 0
	for _, delta := range snapshot.Deltas {
		itemCount += delta.Quantity
		lines = append(lines, payloads.SaleLine{
			ProductID: delta.ProductID,
			Quantity:  delta.Quantity,
			NewStock:  delta.NewStock,
		})
	}
	return payloads.SaleCompletedEvent{
		SaleID:        sale.ID,
		ReceiptNumber: sale.ReceiptNumber,
		EmployeeID:    sale.EmployeeID,
		TotalCents:    sale.TotalCents,
		ItemCount:     itemCount,
		PaymentMethod: method,
		SaleTime:      sale.SaleTime,
		Lines:         lines,
	}
}

// crossedMinimum reports whether this sale took the product to or below its
// minimum from above it.
func crossedMinimum(delta StockDelta) bool {
	return delta.NewStock <= delta.MinStock && delta.OldStock > delta.MinStock
}

func isReceiptCollision(err error) bool {
	for _, name := range receiptConstraints {
		if db.IsUniqueViolation(err, name) {
			return true
		}
	}
	return false
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return metrics.OutcomeAbandoned
	case pkgerrors.Is(err, pkgerrors.CodeEmptyCart),
		pkgerrors.Is(err, pkgerrors.CodeStockExceeded),
		pkgerrors.Is(err, pkgerrors.CodeOutOfStock),
		pkgerrors.Is(err, pkgerrors.CodeProductMissing),
		pkgerrors.Is(err, pkgerrors.CodeValidation):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}

func pick(override, fallback time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	return fallback
}
