package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/decantaria/fulfillment/internal/core/domain"
	"github.com/decantaria/fulfillment/internal/core/service"
	"github.com/decantaria/fulfillment/internal/port"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type HTTPHandler struct {
	resolver  *service.ShippingResolver
	checkout  *service.CheckoutService
	gateway   port.PaymentGateway
	addresses port.AddressLookup
	validate  *validator.Validate
}

func NewHTTPHandler(resolver *service.ShippingResolver, checkout *service.CheckoutService, gateway port.PaymentGateway, addresses port.AddressLookup) *HTTPHandler {
	return &HTTPHandler{
		resolver:  resolver,
		checkout:  checkout,
		gateway:   gateway,
		addresses: addresses,
		validate:  validator.New(),
	}
}

// Register wires the API routes onto mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/shipping/quote", h.Quote)
	mux.HandleFunc("POST /api/checkout", h.Checkout)
	mux.HandleFunc("GET /api/sales/{id}", h.GetSale)
	mux.HandleFunc("POST /api/sales/{id}/payment", h.InitiatePayment)
	mux.HandleFunc("GET /health", h.HealthCheck)
}

type itemRefRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type quoteRequest struct {
	PostalCode string           `json:"postal_code" validate:"required"`
	Items      []itemRefRequest `json:"items" validate:"required,min=1,dive"`
}

type offerResponse struct {
	ProviderID   string `json:"provider_id"`
	Service      string `json:"service"`
	Price        string `json:"price,omitempty"`
	DeliveryDays int    `json:"delivery_days"`
	Error        string `json:"error,omitempty"`
}

type quoteResponse struct {
	Offers              []offerResponse `json:"offers"`
	DefaultIndex        int             `json:"default_index"`
	NoShippingAvailable bool            `json:"no_shipping_available"`
}

func (h *HTTPHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	dest, err := h.addresses.ByPostalCode(r.Context(), req.PostalCode)
	if err != nil {
		if errors.Is(err, domain.ErrAddressNotFound) {
			writeError(w, http.StatusNotFound, "address not found")
			return
		}
		writeError(w, http.StatusBadGateway, "address lookup failed")
		return
	}

	items, err := h.checkout.LoadCart(r.Context(), toItemRefs(req.Items))
	if err != nil {
		h.writeCartError(w, err)
		return
	}

	set, err := h.resolver.Resolve(r.Context(), *dest, service.PackageFor(items))
	if err != nil && !errors.Is(err, domain.ErrNoShippingAvailable) {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := quoteResponse{
		Offers:              make([]offerResponse, 0, len(set.Offers)),
		DefaultIndex:        set.DefaultIndex,
		NoShippingAvailable: set.DefaultIndex < 0,
	}
	for _, o := range set.Offers {
		resp.Offers = append(resp.Offers, toOfferResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

type customerRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type offerSnapshotRequest struct {
	ProviderID   string `json:"provider_id" validate:"required"`
	Service      string `json:"service"`
	Price        string `json:"price" validate:"required"`
	DeliveryDays int    `json:"delivery_days" validate:"gte=0"`
}

type checkoutRequest struct {
	RequestID string               `json:"request_id" validate:"required"`
	Customer  customerRequest      `json:"customer" validate:"required"`
	Items     []itemRefRequest     `json:"items" validate:"required,min=1,dive"`
	Shipping  offerSnapshotRequest `json:"shipping" validate:"required"`
	Discount  string               `json:"discount"`
}

type checkoutResponse struct {
	SaleID string `json:"sale_id"`
	Total  string `json:"total"`
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !h.decode(w, r, &req) {
		return
	}

	shippingPrice, err := decimal.NewFromString(req.Shipping.Price)
	if err != nil || shippingPrice.IsNegative() {
		writeError(w, http.StatusBadRequest, "invalid shipping price")
		return
	}

	discount := decimal.Zero
	if req.Discount != "" {
		discount, err = decimal.NewFromString(req.Discount)
		if err != nil || discount.IsNegative() {
			writeError(w, http.StatusBadRequest, "invalid discount")
			return
		}
	}

	items, err := h.checkout.LoadCart(r.Context(), toItemRefs(req.Items))
	if err != nil {
		h.writeCartError(w, err)
		return
	}

	sale, err := h.checkout.CommitSale(r.Context(), service.CheckoutInput{
		RequestID: req.RequestID,
		Customer: domain.Customer{
			ID:    req.Customer.ID,
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
		},
		Items: items,
		Shipping: domain.Offer{
			ProviderID:   req.Shipping.ProviderID,
			Service:      req.Shipping.Service,
			Price:        shippingPrice,
			DeliveryDays: req.Shipping.DeliveryDays,
		},
		Discount: discount,
	})
	if err != nil {
		h.writeCommitError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		SaleID: sale.ID,
		Total:  sale.Total.StringFixed(2),
	})
}

type saleItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type saleResponse struct {
	ID        string             `json:"id"`
	Customer  customerRequest    `json:"customer"`
	Items     []saleItemResponse `json:"items"`
	Shipping  offerResponse      `json:"shipping"`
	Total     string             `json:"total"`
	CreatedAt string             `json:"created_at"`
}

func (h *HTTPHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	sale, err := h.checkout.GetSale(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrSaleNotFound) {
			writeError(w, http.StatusNotFound, "sale not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := saleResponse{
		ID: sale.ID,
		Customer: customerRequest{
			ID:    sale.Customer.ID,
			Name:  sale.Customer.Name,
			Email: sale.Customer.Email,
		},
		Shipping:  toOfferResponse(sale.Shipping),
		Total:     sale.Total.StringFixed(2),
		CreatedAt: sale.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	for _, item := range sale.Items {
		resp.Items = append(resp.Items, saleItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type paymentResponse struct {
	QRText        string `json:"qr_text"`
	QRImageBase64 string `json:"qr_image_base64"`
}

// InitiatePayment opens a charge for an already-committed sale. Failures
// here are retryable by the user and never touch the sale or its stock.
func (h *HTTPHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	sale, err := h.checkout.GetSale(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrSaleNotFound) {
			writeError(w, http.StatusNotFound, "sale not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	charge, err := h.gateway.CreateCharge(r.Context(), sale.Total, sale.Customer.Email, "Sale "+sale.ID)
	if err != nil {
		var payErr *domain.PaymentError
		switch {
		case errors.Is(err, domain.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, "payment gateway not configured")
		case errors.As(err, &payErr):
			writeError(w, http.StatusBadGateway, payErr.Message)
		default:
			writeError(w, http.StatusBadGateway, "payment initiation failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, paymentResponse{
		QRText:        charge.QRText,
		QRImageBase64: charge.QRImageBase64,
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid fields: "+err.Error())
		return false
	}
	return true
}

func (h *HTTPHandler) writeCartError(w http.ResponseWriter, err error) {
	var stockErr *domain.InsufficientStockError
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":      "item no longer available in that quantity",
			"product_id": stockErr.ProductID,
		})
	case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *HTTPHandler) writeCommitError(w http.ResponseWriter, err error) {
	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":      "item no longer available in that quantity",
			"product_id": stockErr.ProductID,
		})
	case errors.Is(err, domain.ErrContention):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     "checkout is busy, please retry",
			"retryable": true,
		})
	case errors.Is(err, domain.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "duplicate request")
	case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrInvalidQuantity), errors.Is(err, service.ErrOfferNotValid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func toItemRefs(items []itemRefRequest) []service.ItemRef {
	refs := make([]service.ItemRef, 0, len(items))
	for _, item := range items {
		refs = append(refs, service.ItemRef{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return refs
}

func toOfferResponse(o domain.Offer) offerResponse {
	resp := offerResponse{
		ProviderID:   o.ProviderID,
		Service:      o.Service,
		DeliveryDays: o.DeliveryDays,
		Error:        o.Err,
	}
	if o.Available() {
		resp.Price = o.Price.StringFixed(2)
	}
	return resp
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
