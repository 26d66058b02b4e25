package movementservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/domain"
	apperror "github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/errors"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/logger"
)

// MovementRepository define o contrato que o Serviço de Movimentações espera
// da camada de Persistência.
type MovementRepository interface {
	Record(ctx context.Context, movement domain.Movement) (domain.Movement, error)
	FindAll(ctx context.Context, filter domain.MovementFilter) ([]domain.Movement, error)
}

// Publisher é o contrato do feed de mudanças: cada movimentação gravada emite
// o ID do produto no canal, para invalidação de leituras em cache.
// Satisfeito por cache.Client.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
}

// Service implementa a lógica de negócio das movimentações de estoque.
type Service struct {
	repo      MovementRepository
	publisher Publisher
	channel   string
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Movimentações.
func NewService(repo MovementRepository, publisher Publisher, channel string, logger logger.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		channel:   channel,
		logger:    logger,
	}
}

// RecordMovement valida e grava uma movimentação de entrada ou saída.
func (s *Service) RecordMovement(ctx context.Context, movement domain.Movement) (domain.Movement, error) {
	s.logger.Debug("Iniciando registro de movimentação no serviço.", map[string]interface{}{
		"product_id": movement.ProductID,
		"type":       string(movement.Type),
	})

	if _, err := uuid.Parse(movement.ProductID); err != nil {
		return domain.Movement{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	if movement.Type != domain.MovementInput && movement.Type != domain.MovementOutput {
		return domain.Movement{}, apperror.NewValidationError("Tipo de movimentação inválido. Use 'input' ou 'output'.")
	}
	if !movement.Quantity.IsPositive() {
		return domain.Movement{}, apperror.NewValidationError("A quantidade da movimentação deve ser positiva.")
	}
	if movement.Floor == "" || movement.Position == "" {
		return domain.Movement{}, apperror.NewValidationError("Andar e posição são obrigatórios.")
	}

	movement.ID = uuid.New().String()
	movement.CreatedAt = time.Now().UTC()

	recorded, err := s.repo.Record(ctx, movement)
	if err != nil {
		s.logger.Error("Falha ao registrar movimentação no repositório.", err)
		return domain.Movement{}, err
	}

	// Feed de mudanças: notifica os consumidores para invalidar leituras em
	// cache do produto movimentado. A falha na publicação não desfaz a
	// movimentação já commitada: o cache expira sozinho pelo TTL.
	if err := s.publisher.Publish(ctx, s.channel, recorded.ProductID); err != nil {
		s.logger.Warn("Falha ao publicar evento de movimentação no feed de mudanças.", map[string]interface{}{
			"movement_id": recorded.ID,
			"error":       err.Error(),
		})
	}

	s.logger.Info("Movimentação registrada com sucesso.", map[string]interface{}{
		"id":         recorded.ID,
		"product_id": recorded.ProductID,
		"type":       string(recorded.Type),
		"quantity":   recorded.Quantity.String(),
	})
	return recorded, nil
}

// ListMovements lista as movimentações com filtro e paginação.
func (s *Service) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.Movement, error) {
	if filter.ProductID != "" {
		if _, err := uuid.Parse(filter.ProductID); err != nil {
			return nil, apperror.NewValidationError("O filtro de produto deve ser um UUID válido.")
		}
	}
	if filter.Type != "" && filter.Type != domain.MovementInput && filter.Type != domain.MovementOutput {
		return nil, apperror.NewValidationError("Tipo de movimentação inválido. Use 'input' ou 'output'.")
	}
	return s.repo.FindAll(ctx, filter)
}
