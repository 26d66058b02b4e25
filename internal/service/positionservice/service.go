package positionservice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/domain"
	apperror "github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/errors"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/logger"
)

// PositionRepository define o contrato que o Serviço de Posições espera da
// camada de Persistência.
type PositionRepository interface {
	Create(ctx context.Context, position domain.Position) (domain.Position, error)
	FindAll(ctx context.Context, floor string) ([]domain.Position, error)
	Suggest(ctx context.Context, quantity decimal.Decimal) (domain.Position, error)
}

// Service implementa a lógica de negócio das posições de armazenagem.
type Service struct {
	repo   PositionRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Posições.
func NewService(repo PositionRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreatePosition cria uma nova posição de armazenagem.
func (s *Service) CreatePosition(ctx context.Context, position domain.Position) (domain.Position, error) {
	s.logger.Debug("Iniciando criação de posição no serviço.", map[string]interface{}{"floor": position.Floor, "code": position.Code})

	if strings.TrimSpace(position.Floor) == "" || strings.TrimSpace(position.Code) == "" {
		return domain.Position{}, apperror.NewValidationError("Andar e código da posição são obrigatórios.")
	}
	if !position.Capacity.IsPositive() {
		return domain.Position{}, apperror.NewValidationError("A capacidade da posição deve ser positiva.")
	}

	position.ID = uuid.New().String()
	position.Occupied = decimal.Zero
	now := time.Now().UTC()
	position.CreatedAt = now
	position.UpdatedAt = now

	created, err := s.repo.Create(ctx, position)
	if err != nil {
		s.logger.Error("Falha ao criar posição no repositório.", err)
		return domain.Position{}, err
	}

	s.logger.Info("Posição criada com sucesso.", map[string]interface{}{"id": created.ID, "floor": created.Floor, "code": created.Code})
	return created, nil
}

// ListPositions retorna o mapa de ocupação do armazém (opcionalmente por andar).
func (s *Service) ListPositions(ctx context.Context, floor string) ([]domain.Position, error) {
	return s.repo.FindAll(ctx, floor)
}

// SuggestPosition indica a primeira posição com espaço livre para a quantidade
// informada, na ordem andar + endereço.
func (s *Service) SuggestPosition(ctx context.Context, quantity decimal.Decimal) (domain.Position, error) {
	if !quantity.IsPositive() {
		return domain.Position{}, apperror.NewValidationError("A quantidade deve ser positiva.")
	}

	position, err := s.repo.Suggest(ctx, quantity)
	if err != nil {
		// NotFoundError aqui significa "armazém sem espaço", não um bug.
		return domain.Position{}, err
	}
	return position, nil
}
