package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bebidas_pos/internal/api"
	"bebidas_pos/internal/cart"
	"bebidas_pos/internal/metrics"

	"go.uber.org/zap"
)

var (
	ErrBusy            = errors.New("another order operation is in progress")
	ErrNoLastOrder     = errors.New("no confirmed order to annul")
	ErrAlreadyAnnulled = errors.New("last order is already annulled")
	ErrNotConfirmed    = errors.New("last order is not confirmed")
)

// ValidationError is raised locally, before any request is sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Backend is the part of the Gateway the controller drives.
type Backend interface {
	Create(ctx context.Context, kind Kind, draft Draft) (Order, error)
	Confirm(ctx context.Context, kind Kind, id int64) (Order, error)
	Annul(ctx context.Context, kind Kind, id int64) (Order, error)
}

// Notifier receives the operator-facing outcome of each operation.
type Notifier interface {
	Success(message string)
	Error(message string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

type State string

const (
	StateIdle       State = "idle"
	StateCreating   State = "creating"
	StateConfirming State = "confirming"
	StateConfirmed  State = "confirmed"
	StateFailed     State = "failed"
	StateAnnulling  State = "annulling"
	StateAnnulled   State = "annulled"
)

// Controller runs the create-then-confirm protocol for one cart and keeps the
// last-order panel. Only one lifecycle operation runs at a time.
type Controller struct {
	kind     Kind
	cart     *cart.Cart
	backend  Backend
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	texts    texts
	now      func() time.Time

	mu         sync.Mutex
	busy       bool
	state      State
	supplierID int64
	last       *Summary
	lastErr    string
}

func NewController(c *cart.Cart, backend Backend, notifier Notifier, m *metrics.Metrics, logger *zap.Logger) *Controller {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	kind := KindOf(c.Variant())
	return &Controller{
		kind:     kind,
		cart:     c,
		backend:  backend,
		notifier: notifier,
		metrics:  m,
		logger:   logger.Named("lifecycle").With(zap.String("kind", string(kind))),
		texts:    textsFor(kind),
		now:      time.Now,
		state:    StateIdle,
	}
}

func (c *Controller) Kind() Kind       { return c.kind }
func (c *Controller) Cart() *cart.Cart { return c.cart }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// SetSupplier selects the supplier of a purchase; 0 clears it.
func (c *Controller) SetSupplier(id int64) {
	c.mu.Lock()
	c.supplierID = max(id, 0)
	c.mu.Unlock()
}

func (c *Controller) Supplier() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.supplierID
}

// LastOrder returns the panel state: the last confirmed or annulled order.
func (c *Controller) LastOrder() (Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Summary{}, false
	}
	return *c.last, true
}

// LastError is the message of the most recent failed operation, cleared on success.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// CanAnnul reports whether the annul action should be offered.
func (c *Controller) CanAnnul() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.busy && c.last != nil && c.last.Status == StatusConfirmed
}

// Cancel discards the cart being entered.
func (c *Controller) Cancel() error {
	if !c.acquire() {
		return ErrBusy
	}
	defer c.release()

	c.cart.Clear()
	c.mu.Lock()
	c.lastErr = ""
	if c.kind == KindPurchase {
		c.supplierID = 0
	}
	c.mu.Unlock()
	return nil
}

// Confirm validates the cart, creates a draft and confirms it. On success the
// cart is cleared and the panel shows the confirmed order; on failure the cart
// and the panel are left untouched. A cancelled ctx discards the outcome.
func (c *Controller) Confirm(ctx context.Context) (Summary, error) {
	if !c.acquire() {
		return Summary{}, ErrBusy
	}
	defer c.release()

	lines := c.cart.Lines()
	supplierID := c.Supplier()
	if err := c.validate(lines, supplierID); err != nil {
		c.mu.Lock()
		c.lastErr = err.Message
		c.mu.Unlock()
		c.metrics.RecordStep(string(c.kind), "validate", err, 0)
		c.notifier.Error(err.Message)
		return Summary{}, err
	}

	prev := c.setState(StateCreating)
	start := time.Now()
	created, err := c.backend.Create(ctx, c.kind, BuildDraft(c.kind, supplierID, lines, c.now()))
	c.metrics.RecordStep(string(c.kind), "create", err, time.Since(start))
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.setState(prev)
		return Summary{}, ctxErr
	}
	if err == nil && created.ID == 0 {
		err = errors.New("create response without order id")
	}
	if err != nil {
		return Summary{}, c.fail(c.texts.confirmFailed, err)
	}

	c.setState(StateConfirming)
	start = time.Now()
	confirmed, err := c.backend.Confirm(ctx, c.kind, created.ID)
	c.metrics.RecordStep(string(c.kind), "confirm", err, time.Since(start))
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.logger.Warn("draft left unconfirmed", zap.Int64("order_id", created.ID))
		c.setState(prev)
		return Summary{}, ctxErr
	}
	if err != nil {
		c.logger.Warn("draft left unconfirmed", zap.Int64("order_id", created.ID), zap.Error(err))
		return Summary{}, c.fail(c.texts.confirmFailed, err)
	}

	summary := confirmed.Summary()
	if summary.ID == 0 {
		summary.ID = created.ID
	}

	c.mu.Lock()
	c.last = &summary
	c.state = StateConfirmed
	c.lastErr = ""
	if c.kind == KindPurchase {
		c.supplierID = 0
	}
	c.mu.Unlock()
	c.cart.Clear()

	c.logger.Info("order confirmed",
		zap.Int64("order_id", summary.ID),
		zap.String("status", summary.RawStatus),
		zap.String("total", summary.Total.String()),
	)
	c.notifier.Success(c.texts.confirmed)
	return summary, nil
}

// AnnulLast annuls the order in the panel, provided it is still confirmed.
func (c *Controller) AnnulLast(ctx context.Context) (Summary, error) {
	return c.annulLast(ctx, true)
}

// ForceAnnulLast skips the status guard and lets the backend decide.
func (c *Controller) ForceAnnulLast(ctx context.Context) (Summary, error) {
	return c.annulLast(ctx, false)
}

func (c *Controller) annulLast(ctx context.Context, guard bool) (Summary, error) {
	if !c.acquire() {
		return Summary{}, ErrBusy
	}
	defer c.release()

	last, ok := c.LastOrder()
	if !ok {
		return Summary{}, ErrNoLastOrder
	}
	if guard {
		switch last.Status {
		case StatusConfirmed:
		case StatusAnnulled:
			return last, ErrAlreadyAnnulled
		default:
			return last, ErrNotConfirmed
		}
	}

	prev := c.setState(StateAnnulling)
	start := time.Now()
	annulled, err := c.backend.Annul(ctx, c.kind, last.ID)
	c.metrics.RecordStep(string(c.kind), "annul", err, time.Since(start))
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.setState(prev)
		return last, ctxErr
	}
	if err != nil {
		msg := api.Message(err, c.texts.annulFailed)
		c.mu.Lock()
		c.state = prev
		c.lastErr = msg
		c.mu.Unlock()
		c.logger.Warn("annul failed", zap.Int64("order_id", last.ID), zap.Error(err))
		c.notifier.Error(msg)
		return last, err
	}

	summary := annulled.Summary()
	if summary.ID == 0 {
		summary.ID = last.ID
	}

	c.mu.Lock()
	c.last = &summary
	c.state = StateAnnulled
	c.lastErr = ""
	c.mu.Unlock()

	c.logger.Info("order annulled", zap.Int64("order_id", summary.ID), zap.String("status", summary.RawStatus))
	c.notifier.Success(fmt.Sprintf(c.texts.annulled, summary.ID))
	return summary, nil
}

func (c *Controller) validate(lines []cart.Line, supplierID int64) *ValidationError {
	if len(lines) == 0 || (c.kind == KindPurchase && supplierID <= 0) {
		return &ValidationError{Message: c.texts.incomplete}
	}
	for i, l := range lines {
		n := i + 1
		switch {
		case l.Quantity < 1:
			return &ValidationError{Message: fmt.Sprintf("La cantidad del renglón %d (%s) debe ser mayor a 0.", n, l.Name)}
		case !l.UnitAmount.IsPositive():
			return &ValidationError{Message: fmt.Sprintf(c.texts.unitRequired, n, l.Name)}
		case l.Discount.IsNegative():
			return &ValidationError{Message: fmt.Sprintf("La bonificación del renglón %d (%s) no puede ser negativa.", n, l.Name)}
		case l.Tax.IsNegative():
			return &ValidationError{Message: fmt.Sprintf("Los impuestos del renglón %d (%s) no pueden ser negativos.", n, l.Name)}
		}
	}
	return nil
}

func (c *Controller) fail(fallback string, err error) error {
	msg := api.Message(err, fallback)
	c.mu.Lock()
	c.state = StateFailed
	c.lastErr = msg
	c.mu.Unlock()
	c.logger.Warn("order not confirmed", zap.Error(err))
	c.notifier.Error(msg)
	return err
}

func (c *Controller) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

func (c *Controller) setState(s State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.state
	c.state = s
	return prev
}
