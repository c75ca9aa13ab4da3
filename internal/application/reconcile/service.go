package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/erp/reconcile/internal/domain/reconcile"
	"github.com/erp/reconcile/internal/domain/shared"
	"github.com/erp/reconcile/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service orchestrates reconciliation operations: it resolves trusted
// time, serializes mutations per order, drives the aggregate, persists
// atomically and publishes events after a successful commit.
type Service struct {
	orderRepo      reconcile.OrderRepository
	auditRepo      reconcile.AuditEntryRepository
	serials        reconcile.SerialInventory
	clock          reconcile.Clock
	eventPublisher shared.EventPublisher
	logger         *zap.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*orderLock
}

type orderLock struct {
	sync.Mutex
	refs int
}

// NewService creates a new reconciliation Service
func NewService(
	orderRepo reconcile.OrderRepository,
	auditRepo reconcile.AuditEntryRepository,
	serials reconcile.SerialInventory,
	clock reconcile.Clock,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		serials:   serials,
		clock:     clock,
		logger:    logger,
		locks:     make(map[uuid.UUID]*orderLock),
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// lockOrder acquires the per-order mutex. Mutations against different
// orders proceed in parallel; two mutations against the same order are
// serialized here, with the aggregate version as the backstop for
// multi-process deployments.
func (s *Service) lockOrder(id uuid.UUID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &orderLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// now resolves the trusted time for an operation. A clock failure fails
// the operation; eligibility is never decided on a time we could not get.
func (s *Service) now(ctx context.Context) (reconcile.Reading, error) {
	reading, err := s.clock.Now(ctx)
	if err != nil {
		s.logger.Error("time source unavailable", zap.Error(err))
		return reconcile.Reading{}, shared.NewDomainError("TIME_UNAVAILABLE", "Could not obtain a trusted time reading")
	}
	if !reading.Verified {
		s.logger.Warn("using unverified local time", zap.Time("time", reading.Time))
	}
	return reading, nil
}

// RegisterDelivery opens a reconciliation ledger from delivery facts
func (s *Service) RegisterDelivery(ctx context.Context, req RegisterDeliveryRequest) (*OrderResponse, error) {
	lines := make([]reconcile.DeliveredLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, reconcile.DeliveredLine{
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			UnitPrice:      l.UnitPrice,
			Quantity:       l.Quantity,
			RequiresSerial: l.RequiresSerial,
			Serials:        l.Serials,
		})
	}

	order, err := reconcile.NewDeliveredOrder(
		req.OrderNumber,
		req.CustomerID,
		req.LocationID,
		valueobject.Currency(req.Currency),
		req.DeliveredAt,
		lines,
	)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, order)

	s.logger.Info("delivery registered",
		zap.String("order_number", order.OrderNumber),
		zap.Int("lines", len(order.Lines)))

	response := ToOrderResponse(order, req.DeliveredAt)
	return &response, nil
}

// ReturnItem records a return against a line
func (s *Service) ReturnItem(ctx context.Context, orderID uuid.UUID, req ReturnItemRequest) (*MutationResponse, error) {
	return s.mutate(ctx, orderID, func(order *reconcile.Order, now time.Time) (*reconcile.AuditEntry, *uuid.UUID, error) {
		entry, err := order.ReturnItem(req.LineID, req.Quantity, reconcile.Condition(req.Condition),
			req.Reason, req.EvidenceKey, req.ActorID, now)
		return entry, nil, err
	})
}

// provisionSerials secures stock for a serial-tracked issue before the
// aggregate mutation. Supplied serials are reserved as given; with none
// supplied, the requested quantity is drawn from available stock at the
// order's location. Either way every issued serial comes out of the
// available pool, and the returned release func undoes the reservation
// if the commit later fails.
func (s *Service) provisionSerials(
	ctx context.Context,
	orderID, productID uuid.UUID,
	quantity decimal.Decimal,
	supplied []string,
) ([]string, func(), error) {
	if !quantity.IsInteger() || !quantity.IsPositive() {
		return nil, nil, shared.NewDomainError(reconcile.ErrCodeInvalidQuantity,
			"Serial-tracked products require whole-number quantities")
	}
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	locationID := order.LocationID

	serials := supplied
	if len(serials) == 0 {
		want := int(quantity.IntPart())
		drawn, err := s.serials.AvailableSerials(ctx, productID, locationID, want)
		if err != nil {
			return nil, nil, err
		}
		if len(drawn) < want {
			return nil, nil, shared.NewDomainError(reconcile.ErrCodeInsufficientSerials,
				"Not enough serials in stock for the replacement product")
		}
		serials = drawn
	}
	// Reserve is all-or-nothing, so a supplied serial that is not in
	// available stock at this location fails the whole operation here.
	if err := s.serials.Reserve(ctx, productID, locationID, serials); err != nil {
		return nil, nil, err
	}
	release := func() {
		if rerr := s.serials.Release(context.WithoutCancel(ctx), productID, locationID, serials); rerr != nil {
			s.logger.Error("failed to release reserved serials", zap.Error(rerr))
		}
	}
	return serials, release, nil
}

// ReplaceItem replaces quantity from a line with another product.
// Serial-tracked replacements go through provisionSerials whether the
// serials were supplied or auto-drawn.
func (s *Service) ReplaceItem(ctx context.Context, orderID uuid.UUID, req ReplaceItemRequest) (*MutationResponse, error) {
	release := func() {}
	serials := req.Serials
	if req.Serialized {
		var err error
		serials, release, err = s.provisionSerials(ctx, orderID, req.ProductID, req.Quantity, req.Serials)
		if err != nil {
			return nil, err
		}
	}

	product := reconcile.ReplacementProduct{
		ID:             req.ProductID,
		Name:           req.ProductName,
		UnitPrice:      req.UnitPrice,
		RequiresSerial: req.Serialized,
	}

	resp, err := s.mutate(ctx, orderID, func(order *reconcile.Order, now time.Time) (*reconcile.AuditEntry, *uuid.UUID, error) {
		entry, newLine, err := order.ReplaceItem(req.LineID, req.Quantity, reconcile.Condition(req.Condition),
			req.Reason, product, serials, req.ActorID, now)
		if err != nil {
			return nil, nil, err
		}
		id := newLine.ID
		return entry, &id, nil
	})
	if err != nil {
		release()
		return nil, err
	}
	return resp, nil
}

// AddComplimentary adds a free-of-charge line to the order. A
// serial-tracked goodwill item still consumes real stock, so it draws
// and reserves serials exactly like a replacement does.
func (s *Service) AddComplimentary(ctx context.Context, orderID uuid.UUID, req AddComplimentaryRequest) (*MutationResponse, error) {
	release := func() {}
	serials := req.Serials
	if req.Serialized {
		var err error
		serials, release, err = s.provisionSerials(ctx, orderID, req.ProductID, req.Quantity, req.Serials)
		if err != nil {
			return nil, err
		}
	}

	product := reconcile.ReplacementProduct{
		ID:             req.ProductID,
		Name:           req.ProductName,
		UnitPrice:      req.UnitPrice,
		RequiresSerial: req.Serialized,
	}
	resp, err := s.mutate(ctx, orderID, func(order *reconcile.Order, now time.Time) (*reconcile.AuditEntry, *uuid.UUID, error) {
		line, err := order.AddComplimentary(product, req.Quantity, req.Reason, serials, req.ActorID, now)
		if err != nil {
			return nil, nil, err
		}
		id := line.ID
		return nil, &id, nil
	})
	if err != nil {
		release()
		return nil, err
	}
	return resp, nil
}

// ResetItem reverses all reconciliation effects on one root line
func (s *Service) ResetItem(ctx context.Context, orderID uuid.UUID, req ResetItemRequest) (*MutationResponse, error) {
	return s.mutate(ctx, orderID, func(order *reconcile.Order, now time.Time) (*reconcile.AuditEntry, *uuid.UUID, error) {
		entry, err := order.ResetItem(req.LineID, req.ActorID, now)
		return entry, nil, err
	})
}

// ResetAll reverses all reconciliation effects on the order
func (s *Service) ResetAll(ctx context.Context, orderID uuid.UUID, req ResetAllRequest) (*MutationResponse, error) {
	return s.mutate(ctx, orderID, func(order *reconcile.Order, now time.Time) (*reconcile.AuditEntry, *uuid.UUID, error) {
		entry, err := order.ResetAll(req.ActorID, now)
		return entry, nil, err
	})
}

// PreviewResetAll reports what a full reset would restore and remove,
// without mutating anything. Mirrors the preview/commit shape of the
// lock flow.
func (s *Service) PreviewResetAll(ctx context.Context, orderID uuid.UUID) (*ResetPreviewResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsLocked() {
		return nil, shared.NewDomainError(reconcile.ErrCodeOrderLocked, "Order is locked; a debit memo has been issued")
	}

	resp := &ResetPreviewResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		RestoredLines: make([]RestoredLineView, 0),
	}
	for idx := range order.Lines {
		line := &order.Lines[idx]
		if !line.IsRoot() {
			resp.RemovedLineCount++
			continue
		}
		resp.RestoredLines = append(resp.RestoredLines, RestoredLineView{
			LineID:           line.ID,
			ProductName:      line.ProductName,
			NetQuantity:      line.NetQuantity,
			OriginalQuantity: line.OriginalQuantity,
		})
	}
	return resp, nil
}

// PreviewDebitMemo is the first phase of the lock flow: it computes the
// amount a lock would capture now, without mutating anything.
func (s *Service) PreviewDebitMemo(ctx context.Context, orderID uuid.UUID) (*DebitMemoPreviewResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsLocked() {
		return nil, shared.NewDomainError(reconcile.ErrCodeOrderLocked, "Order is already locked")
	}
	return &DebitMemoPreviewResponse{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Currency:       string(order.Currency),
		DebitMemoTotal: order.TotalReturnedValue(),
		EntryCount:     len(order.Entries),
	}, nil
}

// LockOrder is the second phase of the lock flow: it issues the debit
// memo and freezes the order. When the request carries an expected total
// the lock fails if the live amount no longer matches the preview.
func (s *Service) LockOrder(ctx context.Context, orderID uuid.UUID, req LockOrderRequest) (*MutationResponse, error) {
	return s.mutate(ctx, orderID, func(order *reconcile.Order, now time.Time) (*reconcile.AuditEntry, *uuid.UUID, error) {
		if req.ExpectedTotal != nil && !order.TotalReturnedValue().Equal(*req.ExpectedTotal) {
			return nil, nil, shared.NewDomainError("STALE_PREVIEW",
				"Debit memo total changed since the preview; fetch a new preview")
		}
		entry, err := order.Lock(req.ActorID, now)
		return entry, nil, err
	})
}

// mutate runs one serialized load-mutate-save cycle against an order
func (s *Service) mutate(
	ctx context.Context,
	orderID uuid.UUID,
	op func(order *reconcile.Order, now time.Time) (*reconcile.AuditEntry, *uuid.UUID, error),
) (*MutationResponse, error) {
	reading, err := s.now(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.lockOrder(orderID)
	defer unlock()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	entry, newLineID, err := op(order, reading.Time)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, order)

	response := &MutationResponse{
		Order:     ToOrderResponse(order, reading.Time),
		NewLineID: newLineID,
	}
	if entry != nil {
		e := ToAuditEntryResponse(entry)
		response.Entry = &e
	}
	return response, nil
}

// publishEvents publishes pending domain events after a successful commit
func (s *Service) publishEvents(ctx context.Context, order *reconcile.Order) {
	if s.eventPublisher == nil {
		order.ClearDomainEvents()
		return
	}
	for _, event := range order.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	order.ClearDomainEvents()
}

// GetByID retrieves an order with eligibility evaluated at the trusted now
func (s *Service) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	reading, err := s.now(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order, reading.Time)
	return &response, nil
}

// GetByOrderNumber retrieves an order by its business number
func (s *Service) GetByOrderNumber(ctx context.Context, orderNumber string) (*OrderResponse, error) {
	reading, err := s.now(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order, reading.Time)
	return &response, nil
}

// GetEligibility reports the return window state of an order
func (s *Service) GetEligibility(ctx context.Context, orderID uuid.UUID) (*EligibilityResponse, error) {
	reading, err := s.now(ctx)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	gate := order.Eligibility(reading.Time)
	return &EligibilityResponse{
		OrderID:        order.ID,
		Eligible:       gate.Eligible && !order.Locked,
		RemainingSecs:  int64(gate.Remaining.Seconds()),
		ExpiredSecs:    int64(gate.ExpiredSince.Seconds()),
		WindowClosesAt: order.DeliveredAt.Add(reconcile.ReturnWindow),
		ClockVerified:  reading.Verified,
	}, nil
}

// GetSummary computes the financial summary of an order
func (s *Service) GetSummary(ctx context.Context, orderID uuid.UUID) (*SummaryResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToSummaryResponse(order)
	return &response, nil
}

// List retrieves orders with filtering and pagination
func (s *Service) List(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	reading, err := s.now(ctx)
	if err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]any),
	}
	if filter.CustomerID != nil {
		domainFilter.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.Locked != nil {
		domainFilter.Filters["locked"] = *filter.Locked
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}

	page, err := s.orderRepo.List(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]OrderResponse, 0, len(page.Items))
	for idx := range page.Items {
		responses = append(responses, ToOrderResponse(&page.Items[idx], reading.Time))
	}
	return responses, page.Total, nil
}

// GetAuditTrail retrieves the audit trail of an order
func (s *Service) GetAuditTrail(ctx context.Context, orderID uuid.UUID, filter AuditTrailFilter) ([]AuditEntryResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "seq",
		OrderDir: orderDir,
		Filters:  make(map[string]any),
	}
	if filter.Type != "" {
		domainFilter.Filters["type"] = filter.Type
	}

	page, err := s.auditRepo.ListByOrder(ctx, orderID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]AuditEntryResponse, 0, len(page.Items))
	for idx := range page.Items {
		responses = append(responses, ToAuditEntryResponse(&page.Items[idx]))
	}
	return responses, page.Total, nil
}
