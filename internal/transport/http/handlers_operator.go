package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lading/internal/platform/middleware"
	"lading/internal/tokens"
	"lading/internal/transport/http/shared"
	dErrors "lading/pkg/domain-errors"
	"lading/pkg/secrets"
)

// operatorSessionTTL bounds how long an issued operator session stays valid.
const operatorSessionTTL = time.Hour

// OperatorHandler exchanges the long-lived operator secret for a short-lived
// session token. The secret itself is only ever compared against its bcrypt
// hash; an empty hash disables the endpoint entirely.
type OperatorHandler struct {
	tokenHash string
	tokens    *tokens.Service
	logger    *slog.Logger
}

// NewOperatorHandler creates an OperatorHandler.
func NewOperatorHandler(tokenHash string, tokenService *tokens.Service, logger *slog.Logger) *OperatorHandler {
	return &OperatorHandler{tokenHash: tokenHash, tokens: tokenService, logger: logger}
}

// Register registers the operator session route.
func (h *OperatorHandler) Register(r chi.Router) {
	r.Post("/identity/operator/session", h.handleSession)
}

type operatorSessionRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

type operatorSessionResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

func (h *OperatorHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.tokenHash == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "operator access is not configured"))
		return
	}

	var req operatorSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	if req.Name == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "name is required"))
		return
	}

	if err := secrets.Verify(req.Secret, h.tokenHash); err != nil {
		h.logger.WarnContext(ctx, "operator session rejected",
			"name", req.Name,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid operator secret"))
		return
	}

	token, err := h.tokens.Issue(req.Name, operatorSessionTTL)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "issue session token"))
		return
	}

	h.logger.InfoContext(ctx, "operator session issued", "name", req.Name)
	shared.WriteJSON(w, http.StatusOK, operatorSessionResponse{
		Token:     token,
		ExpiresIn: int64(operatorSessionTTL.Seconds()),
	})
}
