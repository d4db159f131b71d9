package orders

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tortasnery/storefront/internal/events"
	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/db"
	"github.com/tortasnery/storefront/pkg/db/models"
	"github.com/tortasnery/storefront/pkg/enums"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
	"github.com/tortasnery/storefront/pkg/logger"
	"github.com/tortasnery/storefront/pkg/mailer"
	"github.com/tortasnery/storefront/pkg/metrics"
)

const (
	DefaultPaymentMethod = "whatsapp"

	// Order sources label the created-orders metric. Seeded orders never
	// send email.
	SourceCart    = "cart"
	SourcePayload = "payload"
	SourceSeed    = "seed"

	DefaultRecentLimit = 4
	MaxRecentLimit     = 50

	emailTimeout = 15 * time.Second
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cacheInvalidator interface {
	Del(ctx context.Context, keys ...string) error
}

type Service interface {
	CreateOrder(ctx context.Context, input CreateInput) (Created, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	ListByEmail(ctx context.Context, email string) ([]models.Order, error)
	Get(ctx context.Context, id int64) (*models.Order, error)
	Recent(ctx context.Context, limit int) ([]models.Order, error)
	// Drain waits for in-flight confirmation emails or until ctx is done.
	Drain(ctx context.Context) error
}

// Deps wires the order service. Repo and Tx are required; the rest fall
// back to no-ops.
type Deps struct {
	Repo   *Repository
	Tx     txRunner
	Mailer mailer.Sender
	Events events.Publisher
	Cache  cacheInvalidator
	// CacheKeys are dropped after every order write.
	CacheKeys []string
	Metrics   *metrics.OrderMetrics
	Store     config.StoreConfig
	Logger    *logger.Logger
}

type service struct {
	repo      *Repository
	tx        txRunner
	mail      mailer.Sender
	events    events.Publisher
	cache     cacheInvalidator
	cacheKeys []string
	metrics   *metrics.OrderMetrics
	store     config.StoreConfig
	logg      *logger.Logger
	now       func() time.Time
	number    func() string
	// dispatch runs post-commit side effects.
	dispatch func(fn func())
	pending  sync.WaitGroup
}

func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	publisher := deps.Events
	if publisher == nil {
		publisher = events.Noop{}
	}
	svc := &service{
		repo:      deps.Repo,
		tx:        deps.Tx,
		mail:      deps.Mailer,
		events:    publisher,
		cache:     deps.Cache,
		cacheKeys: deps.CacheKeys,
		metrics:   deps.Metrics,
		store:     deps.Store,
		logg:      deps.Logger,
		now:       time.Now,
		number:    NewOrderNumber,
	}
	svc.dispatch = svc.track
	return svc, nil
}

func (s *service) track(fn func()) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		fn()
	}()
}

func (s *service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewOrderNumber returns a random six digit order number.
func NewOrderNumber() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}

// CreateOrder writes the order and all of its items in one transaction. The
// confirmation email, cache invalidation and event run after commit and never
// affect the result.
func (s *service) CreateOrder(ctx context.Context, input CreateInput) (Created, error) {
	started := s.now()
	input.Customer = input.Customer.trimmed()
	if err := validateCreate(input); err != nil {
		return Created{}, err
	}

	status := enums.OrderStatusPending
	if input.Status != "" {
		parsed, err := enums.ParseOrderStatus(input.Status)
		if err != nil {
			return Created{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
		}
		status = parsed
	}

	number := strings.TrimSpace(input.OrderNumber)
	if number == "" {
		number = s.number()
	}

	order := &models.Order{
		OrderNumber:     number,
		CustomerID:      input.CustomerID,
		CustomerName:    input.Customer.FullName(),
		CustomerEmail:   input.Customer.Email,
		CustomerPhone:   input.Customer.Phone,
		EventDate:       input.Customer.EventDate,
		EventTime:       input.Customer.EventTime,
		DeliveryAddress: input.Customer.Address,
		TotalAmount:     input.Total,
		Status:          status,
		PaymentMethod:   DefaultPaymentMethod,
	}
	if input.Customer.Notes != "" {
		notes := input.Customer.Notes
		order.Notes = &notes
	}
	for _, item := range input.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   item.ProductID,
			ProductName: strings.TrimSpace(item.Name),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "order_number") {
			return Created{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "could not create order").
				WithDetails(map[string]string{"orderNumber": number})
		}
		return Created{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	source := input.Source
	if source == "" {
		source = SourcePayload
	}
	s.metrics.IncCreated(source)
	s.metrics.ObserveCheckout(s.now().Sub(started))
	if s.logg != nil {
		ctx = s.logg.WithOrder(ctx, order.ID, order.OrderNumber)
		s.logg.Info(s.logg.WithField(ctx, "source", source), "orders.created")
	}

	s.invalidate(ctx)
	s.publish(ctx, events.OrderCreated, order.OrderNumber, events.OrderCreatedPayload{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerEmail: order.CustomerEmail,
		TotalAmount:   order.TotalAmount,
		ItemCount:     len(order.Items),
	})
	if source != SourceSeed {
		s.sendConfirmation(ctx, *order, input.Customer.FirstName)
	}

	return Created{OrderID: order.ID, OrderNumber: order.OrderNumber}, nil
}

func (s *service) sendConfirmation(ctx context.Context, order models.Order, firstName string) {
	if s.mail == nil {
		return
	}
	msg, err := BuildConfirmation(order, firstName, s.store)
	if err != nil {
		s.metrics.IncEmail("failed")
		s.logError(ctx, "orders.email_render_failed", order.ID, err)
		return
	}
	detached := context.WithoutCancel(ctx)
	s.dispatch(func() {
		sendCtx, cancel := context.WithTimeout(detached, emailTimeout)
		defer cancel()
		if err := s.mail.Send(sendCtx, msg); err != nil {
			s.metrics.IncEmail("failed")
			s.logError(sendCtx, "orders.email_failed", order.ID, err)
			return
		}
		s.metrics.IncEmail("sent")
	})
}

// UpdateStatus moves an order along its lifecycle. Re-setting the current
// status succeeds without a write.
func (s *service) UpdateStatus(ctx context.Context, id int64, raw string) (*models.Order, error) {
	next, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
			WithDetails(map[string]any{"status": raw, "allowed": enums.OrderStatusValues()})
	}

	var (
		order   *models.Order
		from    enums.OrderStatus
		changed bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapReadError(err)
		}
		from = current.Status
		order = current
		if from == next {
			return nil
		}
		if !from.CanTransition(next) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", from, next).
				WithDetails(map[string]string{"from": from.String(), "to": next.String()})
		}
		if err := repo.UpdateStatus(ctx, id, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order, err = repo.FindByID(ctx, id)
		if err != nil {
			return mapReadError(err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.IncTransition(from.String(), next.String())
		s.invalidate(ctx)
		s.publish(ctx, events.OrderStatusChanged, order.OrderNumber, events.OrderStatusChangedPayload{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			From:        from.String(),
			To:          next.String(),
		})
	}
	return order, nil
}

func (s *service) List(ctx context.Context) ([]models.Order, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

func (s *service) ListByEmail(ctx context.Context, email string) ([]models.Order, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	rows, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err)
	}
	return order, nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	rows, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent orders")
	}
	return rows, nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil || len(s.cacheKeys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, s.cacheKeys...); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "orders.cache_invalidate_failed")
	}
}

func (s *service) publish(ctx context.Context, eventType, key string, payload any) {
	if err := s.events.Publish(ctx, eventType, key, payload); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "event_type", eventType), "orders.publish_failed", err)
	}
}

func (s *service) logError(ctx context.Context, msg string, orderID int64, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(s.logg.WithField(ctx, "order_id", orderID), msg, err)
}

func mapReadError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
