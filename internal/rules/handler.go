package rules

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sentinel-access/sentinel/internal/authz"
	"github.com/sentinel-access/sentinel/internal/platform/httpx"
)

// Handler exposes the administrative matrix API. Every route requires a
// superuser or the admin role.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers admin routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.requireAdmin)
	r.Get("/roles", h.listRoles)
	r.Get("/elements", h.listElements)
	r.Get("/rules", h.listRules)
	r.Post("/rules", h.createRule)
	r.Get("/rules/{ruleID}", h.getRule)
	r.Put("/rules/{ruleID}", h.updateRule)
	r.Delete("/rules/{ruleID}", h.deleteRule)
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := authz.IdentityFromContext(r.Context())
		if identity == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		if !identity.Superuser && (identity.Role == nil || !strings.EqualFold(identity.Role.Name, "admin")) {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "administrator rights required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type roleResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type elementResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type flagsPayload struct {
	Read      bool `json:"read_permission"`
	ReadAll   bool `json:"read_all_permission"`
	Create    bool `json:"create_permission"`
	Update    bool `json:"update_permission"`
	UpdateAll bool `json:"update_all_permission"`
	Delete    bool `json:"delete_permission"`
	DeleteAll bool `json:"delete_all_permission"`
}

type ruleResponse struct {
	ID          int64  `json:"id"`
	RoleID      int64  `json:"role_id"`
	RoleName    string `json:"role"`
	ElementID   int64  `json:"element_id"`
	ElementName string `json:"element"`
	flagsPayload
}

type createRuleRequest struct {
	RoleID    int64 `json:"role_id" validate:"required,gt=0"`
	ElementID int64 `json:"element_id" validate:"required,gt=0"`
	flagsPayload
}

func toRuleResponse(rule AccessRule) ruleResponse {
	return ruleResponse{
		ID:          rule.ID,
		RoleID:      rule.RoleID,
		RoleName:    rule.RoleName,
		ElementID:   rule.ElementID,
		ElementName: rule.ElementName,
		flagsPayload: flagsPayload{
			Read:      rule.Flags.Read,
			ReadAll:   rule.Flags.ReadAll,
			Create:    rule.Flags.Create,
			Update:    rule.Flags.Update,
			UpdateAll: rule.Flags.UpdateAll,
			Delete:    rule.Flags.Delete,
			DeleteAll: rule.Flags.DeleteAll,
		},
	}
}

func (p flagsPayload) toFlags() authz.RuleFlags {
	return authz.RuleFlags{
		Read:      p.Read,
		ReadAll:   p.ReadAll,
		Create:    p.Create,
		Update:    p.Update,
		UpdateAll: p.UpdateAll,
		Delete:    p.Delete,
		DeleteAll: p.DeleteAll,
	}
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.fail(w, "list roles", err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleResponse{ID: role.ID, Name: role.Name, Description: role.Description})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (h *Handler) listElements(w http.ResponseWriter, r *http.Request) {
	elements, err := h.service.ListElements(r.Context())
	if err != nil {
		h.fail(w, "list elements", err)
		return
	}
	out := make([]elementResponse, 0, len(elements))
	for _, element := range elements {
		out = append(out, elementResponse{ID: element.ID, Name: element.Name, Description: element.Description})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"elements": out})
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	matrix, err := h.service.ListRules(r.Context())
	if err != nil {
		h.fail(w, "list rules", err)
		return
	}
	out := make([]ruleResponse, 0, len(matrix))
	for _, rule := range matrix {
		out = append(out, toRuleResponse(rule))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rules": out})
}

func (h *Handler) createRule(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rule, err := h.service.CreateRule(r.Context(), req.RoleID, req.ElementID, req.toFlags())
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateRule):
			httpx.Problem(w, http.StatusConflict, "Duplicate", "a rule already exists for this role and element")
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "role or element does not exist")
		default:
			h.fail(w, "create rule", err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"rule": toRuleResponse(rule)})
}

func (h *Handler) getRule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ruleID(w, r)
	if !ok {
		return
	}
	rule, err := h.service.GetRule(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "rule does not exist")
			return
		}
		h.fail(w, "get rule", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rule": toRuleResponse(rule)})
}

func (h *Handler) updateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ruleID(w, r)
	if !ok {
		return
	}
	var req flagsPayload
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	rule, err := h.service.UpdateRule(r.Context(), id, req.toFlags())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "rule does not exist")
			return
		}
		h.fail(w, "update rule", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rule": toRuleResponse(rule)})
}

func (h *Handler) deleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ruleID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteRule(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "rule does not exist")
			return
		}
		h.fail(w, "delete rule", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "rule deleted"})
}

func (h *Handler) ruleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "ruleID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid rule id")
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
