package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	reconcileapp "github.com/erp/reconcile/internal/application/reconcile"
)

// OrderHandler handles reconciliation order API endpoints
type OrderHandler struct {
	BaseHandler
	service *reconcileapp.Service
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(service *reconcileapp.Service) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterDelivery godoc
//
//	@ID				registerDelivery
//	@Summary		Register a delivered order
//	@Description	Open a reconciliation ledger for an order from its delivery facts
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			request	body		reconcileapp.RegisterDeliveryRequest	true	"Delivery handover"
//	@Success		201		{object}	APIResponse[reconcileapp.OrderResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/orders [post]
func (h *OrderHandler) RegisterDelivery(c *gin.Context) {
	var req reconcileapp.RegisterDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.service.RegisterDelivery(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, order)
}

// GetByID godoc
//
//	@ID				getOrderById
//	@Summary		Get order by ID
//	@Description	Retrieve a reconciliation order with its lines and eligibility state
//	@Tags			orders
//	@Produce		json
//	@Param			id	path		string	true	"Order ID"	format(uuid)
//	@Success		200	{object}	APIResponse[reconcileapp.OrderResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// GetByOrderNumber godoc
//
//	@ID				getOrderByNumber
//	@Summary		Get order by order number
//	@Description	Retrieve a reconciliation order by its business order number
//	@Tags			orders
//	@Produce		json
//	@Param			order_number	path		string	true	"Order number"	example:"SO-2026-00001"
//	@Success		200				{object}	APIResponse[reconcileapp.OrderResponse]
//	@Failure		400				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Router			/orders/number/{order_number} [get]
func (h *OrderHandler) GetByOrderNumber(c *gin.Context) {
	orderNumber := c.Param("order_number")
	if orderNumber == "" {
		h.BadRequest(c, "Order number is required")
		return
	}

	order, err := h.service.GetByOrderNumber(c.Request.Context(), orderNumber)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// List godoc
//
//	@ID				listOrders
//	@Summary		List reconciliation orders
//	@Description	Retrieve a paginated list of reconciliation orders with optional filtering
//	@Tags			orders
//	@Produce		json
//	@Param			search		query		string	false	"Search term (order number)"
//	@Param			customer_id	query		string	false	"Customer ID"	format(uuid)
//	@Param			locked		query		bool	false	"Locked state"
//	@Param			start_date	query		string	false	"Delivered after (ISO 8601)"	format(date-time)
//	@Param			end_date	query		string	false	"Delivered before (ISO 8601)"	format(date-time)
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(100)
//	@Param			order_by	query		string	false	"Order by field"	default(created_at)
//	@Param			order_dir	query		string	false	"Order direction"	Enums(asc, desc)	default(desc)
//	@Success		200			{object}	APIResponse[[]reconcileapp.OrderResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var filter reconcileapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	// Set defaults
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	orders, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// ReturnItem godoc
//
//	@ID				returnItem
//	@Summary		Return quantity from a line
//	@Description	Record a customer return against a delivered or replacement line
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Order ID"	format(uuid)
//	@Param			request	body		reconcileapp.ReturnItemRequest	true	"Return request"
//	@Success		200		{object}	APIResponse[reconcileapp.MutationResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/orders/{id}/returns [post]
func (h *OrderHandler) ReturnItem(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req reconcileapp.ReturnItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ReturnItem(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ReplaceItem godoc
//
//	@ID				replaceItem
//	@Summary		Replace quantity with another product
//	@Description	Take back quantity from a line and hand out a replacement product
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Order ID"	format(uuid)
//	@Param			request	body		reconcileapp.ReplaceItemRequest	true	"Replacement request"
//	@Success		200		{object}	APIResponse[reconcileapp.MutationResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/orders/{id}/replacements [post]
func (h *OrderHandler) ReplaceItem(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req reconcileapp.ReplaceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ReplaceItem(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// AddComplimentary godoc
//
//	@ID				addComplimentary
//	@Summary		Add a complimentary line
//	@Description	Add a free-of-charge goodwill line to the order
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string									true	"Order ID"	format(uuid)
//	@Param			request	body		reconcileapp.AddComplimentaryRequest	true	"Complimentary request"
//	@Success		200		{object}	APIResponse[reconcileapp.MutationResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/orders/{id}/complimentary [post]
func (h *OrderHandler) AddComplimentary(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req reconcileapp.AddComplimentaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AddComplimentary(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ResetItem godoc
//
//	@ID				resetItem
//	@Summary		Reset one root line
//	@Description	Reverse all reconciliation activity recorded against a delivered line
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Order ID"	format(uuid)
//	@Param			request	body		reconcileapp.ResetItemRequest	true	"Reset item request"
//	@Success		200		{object}	APIResponse[reconcileapp.MutationResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/orders/{id}/reset-item [post]
func (h *OrderHandler) ResetItem(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req reconcileapp.ResetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ResetItem(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ResetAll godoc
//
//	@ID				resetAll
//	@Summary		Reset the whole order
//	@Description	Reverse all reconciliation activity on the order in one step
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Order ID"	format(uuid)
//	@Param			request	body		reconcileapp.ResetAllRequest	true	"Reset all request"
//	@Success		200		{object}	APIResponse[reconcileapp.MutationResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/orders/{id}/reset [post]
func (h *OrderHandler) ResetAll(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req reconcileapp.ResetAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ResetAll(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// PreviewDebitMemo godoc
//
//	@ID				previewDebitMemo
//	@Summary		Preview the debit memo
//	@Description	Compute the amount a lock would capture right now, for operator confirmation
//	@Tags			orders
//	@Produce		json
//	@Param			id	path		string	true	"Order ID"	format(uuid)
//	@Success		200	{object}	APIResponse[reconcileapp.DebitMemoPreviewResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/orders/{id}/debit-memo/preview [get]
func (h *OrderHandler) PreviewDebitMemo(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	preview, err := h.service.PreviewDebitMemo(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, preview)
}

// PreviewResetAll godoc
//
//	@ID				previewResetAll
//	@Summary		Preview a full reset
//	@Description	Report what a full reset would restore and remove, for operator confirmation
//	@Tags			orders
//	@Produce		json
//	@Param			id	path		string	true	"Order ID"	format(uuid)
//	@Success		200	{object}	APIResponse[reconcileapp.ResetPreviewResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/orders/{id}/reset/preview [get]
func (h *OrderHandler) PreviewResetAll(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	preview, err := h.service.PreviewResetAll(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, preview)
}

// Lock godoc
//
//	@ID				lockOrder
//	@Summary		Lock the order
//	@Description	Issue the debit memo and finalize the order; no further mutations are accepted
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Order ID"	format(uuid)
//	@Param			request	body		reconcileapp.LockOrderRequest	true	"Lock request"
//	@Success		200		{object}	APIResponse[reconcileapp.MutationResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/orders/{id}/lock [post]
func (h *OrderHandler) Lock(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req reconcileapp.LockOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.LockOrder(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetSummary godoc
//
//	@ID				getOrderSummary
//	@Summary		Get financial summary
//	@Description	Retrieve the financial summary of the order as reconciled so far
//	@Tags			orders
//	@Produce		json
//	@Param			id	path		string	true	"Order ID"	format(uuid)
//	@Success		200	{object}	APIResponse[reconcileapp.SummaryResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/orders/{id}/summary [get]
func (h *OrderHandler) GetSummary(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	summary, err := h.service.GetSummary(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// GetEligibility godoc
//
//	@ID				getOrderEligibility
//	@Summary		Get return window state
//	@Description	Report whether the order still accepts reconciliation mutations
//	@Tags			orders
//	@Produce		json
//	@Param			id	path		string	true	"Order ID"	format(uuid)
//	@Success		200	{object}	APIResponse[reconcileapp.EligibilityResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/orders/{id}/eligibility [get]
func (h *OrderHandler) GetEligibility(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	eligibility, err := h.service.GetEligibility(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, eligibility)
}

// GetAuditTrail godoc
//
//	@ID				getOrderAuditTrail
//	@Summary		Get the audit trail
//	@Description	Retrieve the append-only audit trail of the order in sequence order
//	@Tags			orders
//	@Produce		json
//	@Param			id			path		string	true	"Order ID"	format(uuid)
//	@Param			type		query		string	false	"Entry type"	Enums(RETURN, REPLACE, COMPLIMENTARY, RESET_ITEM, RESET_ALL, LOCK)
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(100)
//	@Param			order_dir	query		string	false	"Sequence direction"	Enums(asc, desc)	default(asc)
//	@Success		200			{object}	APIResponse[[]reconcileapp.AuditEntryResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/orders/{id}/audit-trail [get]
func (h *OrderHandler) GetAuditTrail(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var filter reconcileapp.AuditTrailFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	entries, total, err := h.service.GetAuditTrail(c.Request.Context(), orderID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, entries, total, filter.Page, filter.PageSize)
}
