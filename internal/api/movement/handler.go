package movement

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/domain"
	apperror "github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/errors"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/logger"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/middleware"
)

// MovementService define o contrato que o Handler espera da camada de Serviço.
type MovementService interface {
	RecordMovement(ctx context.Context, movement domain.Movement) (domain.Movement, error)
	ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.Movement, error)
}

// Handler agrupa todos os métodos de Handler de movimentações.
type Handler struct {
	Service MovementService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc MovementService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// RecordMovementHandler lida com POST /v1/movements. O autor da movimentação
// vem das claims do JWT, não do payload.
func (h *Handler) RecordMovementHandler(w http.ResponseWriter, r *http.Request) {
	var movement domain.Movement
	if err := json.NewDecoder(r.Body).Decode(&movement); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok {
		movement.CreatedBy = claims.UserID
	}

	recorded, err := h.Service.RecordMovement(r.Context(), movement)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, recorded, nil, http.StatusCreated)
}

// ListMovementsHandler lida com GET /v1/movements.
func (h *Handler) ListMovementsHandler(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	filter := domain.MovementFilter{
		Page:      page,
		Limit:     limit,
		ProductID: r.URL.Query().Get("product_id"),
		Type:      domain.MovementType(r.URL.Query().Get("type")),
	}

	movements, err := h.Service.ListMovements(r.Context(), filter)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, movements, nil, http.StatusOK)
}
