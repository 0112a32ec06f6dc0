package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/modularstore/admin-api/internal/envelope"
	"github.com/modularstore/admin-api/internal/middleware"
	"github.com/modularstore/admin-api/internal/model"
	"github.com/modularstore/admin-api/internal/queue"
	"github.com/modularstore/admin-api/internal/repository"
)

// ProductHandler serves the product catalog and its recycle bin.
// Publish, when set, receives a lifecycle event after every recycle-bin
// transition; failures are ignored so the broker can never fail a
// request.
type ProductHandler struct {
	Products *repository.ProductRepo
	Publish  func(ctx context.Context, event queue.ProductLifecycleEvent) error
}

func NewProductHandler(p *repository.ProductRepo,
	publish func(ctx context.Context, event queue.ProductLifecycleEvent) error) *ProductHandler {
	return &ProductHandler{Products: p, Publish: publish}
}

type productReq struct {
	Name    string `json:"product_name"`
	Barcode string `json:"barcode"`
	Price   string `json:"price"`
	Stock   uint64 `json:"stock"`
}

// validate checks the request fields and returns a field→error map,
// normalizing the price to two decimal places on success.
func (r *productReq) validate() map[string]string {
	errs := map[string]string{}
	r.Name = strings.TrimSpace(r.Name)
	r.Barcode = strings.TrimSpace(r.Barcode)
	if r.Name == "" {
		errs["product_name"] = "This field is required."
	}
	if r.Barcode == "" {
		errs["barcode"] = "This field is required."
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(r.Price), 64)
	if err != nil || price < 0 {
		errs["price"] = "A valid non-negative price is required."
	} else {
		r.Price = fmt.Sprintf("%.2f", price)
	}
	return errs
}

// Get returns one active product. Unlike the list endpoint this one
// requires an authenticated caller.
func (h *ProductHandler) Get(c echo.Context) error {
	if middleware.CurrentUser(c) == nil {
		return envelope.Error(c, http.StatusUnauthorized, "Authentication required")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return envelope.Error(c, http.StatusBadRequest, "Invalid product ID.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetActiveByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return envelope.Error(c, http.StatusNotFound, "Product not found.")
		}
		return internalError(c, err)
	}
	return envelope.Success(c, http.StatusOK, p, "Product retrieved successfully.")
}

// GetAll returns every active product; no authentication required.
func (h *ProductHandler) GetAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, err := h.Products.ListActive(ctx)
	if err != nil {
		return internalError(c, err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return envelope.Success(c, http.StatusOK, products, "All products retrieved successfully.")
}

// Create adds a product to the catalog.
func (h *ProductHandler) Create(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return envelope.Error(c, http.StatusBadRequest, "Invalid data provided.")
	}
	if errs := req.validate(); len(errs) > 0 {
		return envelope.Error(c, http.StatusBadRequest, errs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := model.Product{Name: req.Name, Barcode: req.Barcode, Price: req.Price, Stock: req.Stock}
	if err := h.Products.Create(ctx, &p); err != nil {
		if err == repository.ErrBarcodeExists {
			return envelope.Error(c, http.StatusBadRequest,
				map[string]string{"barcode": "product with this barcode already exists."})
		}
		return internalError(c, err)
	}

	created, err := h.Products.GetActiveByID(ctx, p.ID)
	if err != nil {
		return internalError(c, err)
	}
	return envelope.Success(c, http.StatusCreated, created, "Product created successfully.")
}

// Update overwrites an active product; recycled products are invisible
// here and answer 404.
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return envelope.Error(c, http.StatusBadRequest, "Invalid product ID.")
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return envelope.Error(c, http.StatusBadRequest, "Invalid data provided.")
	}
	if errs := req.validate(); len(errs) > 0 {
		return envelope.Error(c, http.StatusBadRequest, errs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := model.Product{ID: id, Name: req.Name, Barcode: req.Barcode, Price: req.Price, Stock: req.Stock}
	if err := h.Products.Update(ctx, &p); err != nil {
		switch err {
		case sql.ErrNoRows:
			return envelope.Error(c, http.StatusNotFound, "Product not found.")
		case repository.ErrBarcodeExists:
			return envelope.Error(c, http.StatusBadRequest,
				map[string]string{"barcode": "product with this barcode already exists."})
		}
		return internalError(c, err)
	}

	updated, err := h.Products.GetActiveByID(ctx, id)
	if err != nil {
		return internalError(c, err)
	}
	return envelope.Success(c, http.StatusOK, updated, "Product updated successfully.")
}

// SoftDelete moves one active product into the recycle bin.
func (h *ProductHandler) SoftDelete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return envelope.Error(c, http.StatusBadRequest, "Invalid product ID.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetActiveByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return envelope.Error(c, http.StatusNotFound, "Product not found.")
		}
		return internalError(c, err)
	}
	if err := h.Products.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return envelope.Error(c, http.StatusNotFound, "Product not found.")
		}
		return internalError(c, err)
	}

	h.publish(queue.ActionRecycled, &p, 1)
	return envelope.Success(c, http.StatusOK, nil, "Product moved to recycle bin.")
}

// SoftDeleteAll moves every active product into the recycle bin.
func (h *ProductHandler) SoftDeleteAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	count, err := h.Products.SoftDeleteAll(ctx, time.Now().UTC())
	if err != nil {
		return internalError(c, err)
	}
	if count == 0 {
		return envelope.Error(c, http.StatusNotFound, "No products found to move to recycle bin.")
	}
	h.publish(queue.ActionRecycled, nil, count)
	return envelope.Success(c, http.StatusOK, nil, fmt.Sprintf("%d product(s) moved to recycle bin.", count))
}

// Destroy permanently deletes one recycled product. Active products
// are out of scope — the 24h clock and the permanent-delete operation
// only ever see the recycle bin.
func (h *ProductHandler) Destroy(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return envelope.Error(c, http.StatusBadRequest, "Invalid product ID.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetRecycledByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return envelope.Error(c, http.StatusNotFound, "Product not found.")
		}
		return internalError(c, err)
	}
	if err := h.Products.PermanentDelete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return envelope.Error(c, http.StatusNotFound, "Product not found.")
		}
		return internalError(c, err)
	}

	h.publish(queue.ActionPurged, &p, 1)
	return envelope.Success(c, http.StatusOK, nil, "Product permanently deleted.")
}

// DestroyAll empties the recycle bin.
func (h *ProductHandler) DestroyAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	count, err := h.Products.PermanentDeleteAll(ctx)
	if err != nil {
		return internalError(c, err)
	}
	if count == 0 {
		return envelope.Error(c, http.StatusNotFound, "No products found in recycle bin to delete.")
	}
	h.publish(queue.ActionPurged, nil, count)
	return envelope.Success(c, http.StatusOK, nil, fmt.Sprintf("%d product(s) permanently deleted.", count))
}

// Restore returns one recycled product to the active catalog, clearing
// deleted_at so a later soft delete starts a fresh retention window.
func (h *ProductHandler) Restore(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return envelope.Error(c, http.StatusBadRequest, "Invalid product ID.")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetRecycledByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return envelope.Error(c, http.StatusNotFound, "Product not found.")
		}
		return internalError(c, err)
	}
	if err := h.Products.Restore(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return envelope.Error(c, http.StatusNotFound, "Product not found.")
		}
		return internalError(c, err)
	}

	h.publish(queue.ActionRestored, &p, 1)
	return envelope.Success(c, http.StatusOK, nil, "Product restored successfully.")
}

// RestoreAll restores every recycled product.
func (h *ProductHandler) RestoreAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	count, err := h.Products.RestoreAll(ctx)
	if err != nil {
		return internalError(c, err)
	}
	if count == 0 {
		return envelope.Error(c, http.StatusNotFound, "No products found in recycle bin to restore.")
	}
	h.publish(queue.ActionRestored, nil, count)
	return envelope.Success(c, http.StatusOK, nil, fmt.Sprintf("%d product(s) restored successfully.", count))
}

// publish fires a lifecycle event asynchronously; the request never
// waits on the broker.
func (h *ProductHandler) publish(action string, p *model.Product, count int64) {
	if h.Publish == nil {
		return
	}
	event := queue.ProductLifecycleEvent{
		Action:     action,
		Count:      count,
		Source:     "api",
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if p != nil {
		event.ProductID = p.ID
		event.Name = p.Name
		event.Barcode = p.Barcode
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Publish(ctx, event)
	}()
}
