package business

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sentinel-access/sentinel/internal/authz"
	"github.com/sentinel-access/sentinel/internal/platform/httpx"
)

// Handler exposes the demo resource endpoints behind the guard.
type Handler struct {
	logger    *slog.Logger
	repo      Repository
	engine    *authz.Engine
	guard     authz.Guard
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo Repository, engine *authz.Engine, guard authz.Guard) *Handler {
	return &Handler{
		logger:    logger,
		repo:      repo,
		engine:    engine,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers the resource routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.With(h.guard.Require(ElementProducts, authz.ActionRead)).Get("/", h.listProducts)
		r.With(h.guard.Require(ElementProducts, authz.ActionCreate)).Post("/", h.createProduct)
		r.With(h.guard.RequireOwned(ElementProducts, authz.ActionRead, h.productOwner)).Get("/{productID}", h.getProduct)
		r.With(h.guard.RequireOwned(ElementProducts, authz.ActionUpdate, h.productOwner)).Put("/{productID}", h.updateProduct)
		r.With(h.guard.RequireOwned(ElementProducts, authz.ActionDelete, h.productOwner)).Delete("/{productID}", h.deleteProduct)
	})
	r.Route("/orders", func(r chi.Router) {
		r.With(h.guard.Require(ElementOrders, authz.ActionRead)).Get("/", h.listOrders)
		r.With(h.guard.RequireOwned(ElementOrders, authz.ActionRead, h.orderOwner)).Get("/{orderID}", h.getOrder)
	})
	r.Route("/shops", func(r chi.Router) {
		r.With(h.guard.Require(ElementShops, authz.ActionRead)).Get("/", h.listShops)
		r.With(h.guard.RequireOwned(ElementShops, authz.ActionRead, h.shopOwner)).Get("/{shopID}", h.getShop)
	})
}

// Owner resolvers feed the engine the owner of the addressed record. An
// unparseable id or a missing record reports "no owner"; the handler body
// surfaces not-found afterwards.

func (h *Handler) productOwner(r *http.Request) authz.OwnerResolver {
	raw := chi.URLParam(r, "productID")
	return func(ctx context.Context) (int64, bool, error) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, false, nil
		}
		p, err := h.repo.GetProduct(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return 0, false, nil
			}
			return 0, false, err
		}
		return p.OwnerID, true, nil
	}
}

func (h *Handler) orderOwner(r *http.Request) authz.OwnerResolver {
	raw := chi.URLParam(r, "orderID")
	return func(ctx context.Context) (int64, bool, error) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, false, nil
		}
		o, err := h.repo.GetOrder(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return 0, false, nil
			}
			return 0, false, err
		}
		return o.OwnerID, true, nil
	}
}

func (h *Handler) shopOwner(r *http.Request) authz.OwnerResolver {
	raw := chi.URLParam(r, "shopID")
	return func(ctx context.Context) (int64, bool, error) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, false, nil
		}
		s, err := h.repo.GetShop(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return 0, false, nil
			}
			return 0, false, err
		}
		return s.OwnerID, true, nil
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	identity := authz.IdentityFromContext(r.Context())
	broad, err := h.engine.HasBroadPermission(r.Context(), identity, ElementProducts, authz.ActionRead)
	if err != nil {
		h.fail(w, "list products", err)
		return
	}
	var products []Product
	if broad {
		products, err = h.repo.ListProducts(r.Context())
	} else {
		products, err = h.repo.ListProductsByOwner(r.Context(), identity.UserID)
	}
	if err != nil {
		h.fail(w, "list products", err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

type productRequest struct {
	Name  string `json:"name" validate:"required"`
	Price int64  `json:"price" validate:"gte=0"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	identity := authz.IdentityFromContext(r.Context())
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	product, err := h.repo.CreateProduct(r.Context(), Product{
		Name:    req.Name,
		Price:   req.Price,
		OwnerID: identity.UserID,
	})
	if err != nil {
		h.fail(w, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"product": product})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	product, err := h.repo.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "product does not exist")
			return
		}
		h.fail(w, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"product": product})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	product, err := h.repo.UpdateProduct(r.Context(), Product{ID: id, Name: req.Name, Price: req.Price})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "product does not exist")
			return
		}
		h.fail(w, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"product": product})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	if err := h.repo.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "product does not exist")
			return
		}
		h.fail(w, "delete product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "product deleted"})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	identity := authz.IdentityFromContext(r.Context())
	broad, err := h.engine.HasBroadPermission(r.Context(), identity, ElementOrders, authz.ActionRead)
	if err != nil {
		h.fail(w, "list orders", err)
		return
	}
	var orders []Order
	if broad {
		orders, err = h.repo.ListOrders(r.Context())
	} else {
		orders, err = h.repo.ListOrdersByOwner(r.Context(), identity.UserID)
	}
	if err != nil {
		h.fail(w, "list orders", err)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}
	order, err := h.repo.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "order does not exist")
			return
		}
		h.fail(w, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) listShops(w http.ResponseWriter, r *http.Request) {
	identity := authz.IdentityFromContext(r.Context())
	broad, err := h.engine.HasBroadPermission(r.Context(), identity, ElementShops, authz.ActionRead)
	if err != nil {
		h.fail(w, "list shops", err)
		return
	}
	var shops []Shop
	if broad {
		shops, err = h.repo.ListShops(r.Context())
	} else {
		shops, err = h.repo.ListShopsByOwner(r.Context(), identity.UserID)
	}
	if err != nil {
		h.fail(w, "list shops", err)
		return
	}
	if shops == nil {
		shops = []Shop{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"shops": shops})
}

func (h *Handler) getShop(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "shopID")
	if !ok {
		return
	}
	shop, err := h.repo.GetShop(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "shop does not exist")
			return
		}
		h.fail(w, "get shop", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"shop": shop})
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
