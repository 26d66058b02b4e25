package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/domain"
	apperror "github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/errors"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/logger"
)

// ManifestService define o contrato que o Handler espera da camada de Serviço.
type ManifestService interface {
	CreateManifest(ctx context.Context, manifest domain.Manifest) (domain.Manifest, error)
	GetManifest(ctx context.Context, id string) (domain.Manifest, error)
	ListManifests(ctx context.Context, filter domain.ManifestFilter) ([]domain.Manifest, error)
	AddItem(ctx context.Context, manifestID string, item domain.ManifestItem) (domain.ManifestItem, error)
	RecordScan(ctx context.Context, manifestID string, code string) (domain.ManifestItem, error)
	Finalize(ctx context.Context, id string) (domain.Manifest, error)
	DeleteManifest(ctx context.Context, id string) error
}

// Handler agrupa todos os métodos de Handler de romaneios.
type Handler struct {
	Service ManifestService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ManifestService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// manifestResponse acrescenta o estado derivado de completude, que a tela de
// conferência usa para habilitar a ação de finalizar.
type manifestResponse struct {
	Manifest   domain.Manifest `json:"manifest"`
	IsComplete bool            `json:"is_complete"`
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

// CreateManifestHandler lida com POST /v1/manifests.
func (h *Handler) CreateManifestHandler(w http.ResponseWriter, r *http.Request) {
	var manifest domain.Manifest
	if err := json.NewDecoder(r.Body).Decode(&manifest); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	created, err := h.Service.CreateManifest(r.Context(), manifest)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, manifestResponse{Manifest: created, IsComplete: created.IsComplete()}, nil, http.StatusCreated)
}

// ListManifestsHandler lida com GET /v1/manifests.
func (h *Handler) ListManifestsHandler(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	filter := domain.ManifestFilter{
		Page:   page,
		Limit:  limit,
		Status: domain.ManifestStatus(r.URL.Query().Get("status")),
	}

	manifests, err := h.Service.ListManifests(r.Context(), filter)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, manifests, nil, http.StatusOK)
}

// GetManifestHandler lida com GET /v1/manifests/{id}.
func (h *Handler) GetManifestHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	manifest, err := h.Service.GetManifest(r.Context(), id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, manifestResponse{Manifest: manifest, IsComplete: manifest.IsComplete()}, nil, http.StatusOK)
}

// DeleteManifestHandler lida com DELETE /v1/manifests/{id}.
func (h *Handler) DeleteManifestHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.Service.DeleteManifest(r.Context(), id); err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, nil, nil, http.StatusNoContent)
}

// AddItemHandler lida com POST /v1/manifests/{id}/items.
func (h *Handler) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var item domain.ManifestItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	created, err := h.Service.AddItem(r.Context(), id, item)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, created, nil, http.StatusCreated)
}

// ScanHandler lida com POST /v1/manifests/{id}/scan: o corpo carrega o código
// lido pelo leitor de código de barras.
func (h *Handler) ScanHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req domain.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	item, err := h.Service.RecordScan(r.Context(), id, req.Code)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, item, nil, http.StatusOK)
}

// FinalizeHandler lida com POST /v1/manifests/{id}/finalize.
func (h *Handler) FinalizeHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	manifest, err := h.Service.Finalize(r.Context(), id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, 0)
		return
	}

	h.handleServiceResponse(w, r, manifestResponse{Manifest: manifest, IsComplete: true}, nil, http.StatusOK)
}
