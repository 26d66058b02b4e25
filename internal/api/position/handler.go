package position

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/domain"
	apperror "github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/errors"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/logger"
)

// PositionService define o contrato que o Handler espera da camada de Serviço.
type PositionService interface {
	CreatePosition(ctx context.Context, position domain.Position) (domain.Position, error)
	ListPositions(ctx context.Context, floor string) ([]domain.Position, error)
	SuggestPosition(ctx context.Context, quantity decimal.Decimal) (domain.Position, error)
}

// Handler agrupa todos os métodos de Handler de posições de armazenagem.
type Handler struct {
	Service PositionService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc PositionService, log logger.Logger) *Handler {
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

// CreatePositionHandler lida com POST /v1/positions.
func (h *Handler) CreatePositionHandler(w http.ResponseWriter, r *http.Request) {
	var position domain.Position
	if err := json.NewDecoder(r.Body).Decode(&position); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	created, err := h.Service.CreatePosition(r.Context(), position)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, created, nil, http.StatusCreated)
}

// ListPositionsHandler lida com GET /v1/positions (mapa de ocupação do armazém).
func (h *Handler) ListPositionsHandler(w http.ResponseWriter, r *http.Request) {
	positions, err := h.Service.ListPositions(r.Context(), r.URL.Query().Get("floor"))
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, positions, nil, http.StatusOK)
}

// SuggestPositionHandler lida com GET /v1/positions/suggest?quantity=N:
// a primeira posição com espaço livre suficiente, na ordem do endereço.
func (h *Handler) SuggestPositionHandler(w http.ResponseWriter, r *http.Request) {
	quantityStr := r.URL.Query().Get("quantity")
	quantity, err := decimal.NewFromString(quantityStr)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O parâmetro 'quantity' deve ser um número válido."), 0)
		return
	}

	position, err := h.Service.SuggestPosition(r.Context(), quantity)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, position, nil, http.StatusOK)
}
