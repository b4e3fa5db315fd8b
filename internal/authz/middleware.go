package authz

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sentinel-access/sentinel/internal/observability"
	"github.com/sentinel-access/sentinel/internal/platform/httpx"
)

// OwnerFromRequest builds an OwnerResolver from the request, typically by
// reading addressing parameters such as a route id.
type OwnerFromRequest func(r *http.Request) OwnerResolver

// Guard wires the decision engine into HTTP handlers as composable
// middleware, keeping the engine itself transport-free.
type Guard struct {
	Engine  *Engine
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Require returns middleware enforcing action on element without an
// ownership check.
func (g Guard) Require(element string, action Action) func(http.Handler) http.Handler {
	return g.middleware(element, action, nil)
}

// RequireOwned returns middleware enforcing action on element with an
// ownership check fed by owner. Create is never ownership-scoped; asking
// for an owned create is a programming error and panics at route
// registration time.
func (g Guard) RequireOwned(element string, action Action, owner OwnerFromRequest) func(http.Handler) http.Handler {
	if action == ActionCreate {
		panic("authz: create permissions cannot be ownership-scoped")
	}
	if owner == nil {
		panic("authz: RequireOwned needs an owner resolver")
	}
	return g.middleware(element, action, owner)
}

func (g Guard) middleware(element string, action Action, owner OwnerFromRequest) func(http.Handler) http.Handler {
	if !action.Valid() {
		panic(fmt.Sprintf("authz: unsupported action %q", action))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())

			var resolver OwnerResolver
			if owner != nil {
				resolver = owner(r)
			}

			decision, err := g.Engine.Authorize(r.Context(), identity, element, action, resolver)
			if err != nil {
				if g.Logger != nil {
					g.Logger.Error("authorize", slog.String("element", element), slog.String("action", string(action)), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}

			g.observe(element, action, decision)

			if !decision.Allowed {
				WriteDenial(w, decision)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g Guard) observe(element string, action Action, decision Decision) {
	if g.Metrics == nil {
		return
	}
	outcome := "allow"
	if !decision.Allowed {
		outcome = string(decision.Reason)
	}
	g.Metrics.ObserveDecision(element, string(action), outcome)
}

// WriteDenial renders a denial with the conventional status mapping:
// unauthenticated 401, unknown_element 404, everything else 403.
func WriteDenial(w http.ResponseWriter, decision Decision) {
	switch decision.Reason {
	case ReasonUnauthenticated:
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
	case ReasonUnknownElement:
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown business element")
	case ReasonNotOwner:
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "not the owner of this resource")
	case ReasonNoRole:
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "no role assigned")
	default:
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
	}
}
