package manifestservice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/domain"
	apperror "github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/errors"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/logger"
)

// ManifestRepository define o contrato que o Serviço de Romaneios espera da
// camada de Persistência.
type ManifestRepository interface {
	GetManifestWithItems(ctx context.Context, id string) (domain.Manifest, error)
	CreateManifest(ctx context.Context, manifest domain.Manifest) (domain.Manifest, error)
	AddItem(ctx context.Context, item domain.ManifestItem) (domain.ManifestItem, error)
	ListManifests(ctx context.Context, filter domain.ManifestFilter) ([]domain.Manifest, error)
	UpdateItemScans(ctx context.Context, itemID string, scanEvents []time.Time, expectedVersion int) (domain.ManifestItem, error)
	UpdateManifestStatus(ctx context.Context, id string, status domain.ManifestStatus) (domain.Manifest, error)
	DeleteManifest(ctx context.Context, id string) error
}

// Service implementa a lógica de negócio dos romaneios: criação, conferência
// por bipagem, avaliação de completude e finalização.
type Service struct {
	repo   ManifestRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Romaneios.
func NewService(repo ManifestRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateManifest cria um novo romaneio (status aberto) com os itens informados.
func (s *Service) CreateManifest(ctx context.Context, manifest domain.Manifest) (domain.Manifest, error) {
	s.logger.Debug("Iniciando criação de romaneio no serviço.", map[string]interface{}{"client_name": manifest.ClientName})

	if manifest.ClientName == "" {
		return domain.Manifest{}, apperror.NewValidationError("O nome do cliente é obrigatório.")
	}
	if manifest.DriverName == "" {
		return domain.Manifest{}, apperror.NewValidationError("O nome do motorista é obrigatório.")
	}

	now := time.Now().UTC()
	manifest.ID = uuid.New().String()
	manifest.Status = domain.ManifestOpen
	manifest.CreatedAt = now
	manifest.UpdatedAt = now

	for i := range manifest.Items {
		if _, err := uuid.Parse(manifest.Items[i].ProductID); err != nil {
			return domain.Manifest{}, apperror.NewValidationError("O ID do produto de cada item deve ser um UUID válido.")
		}
		if !manifest.Items[i].Quantity.IsPositive() {
			return domain.Manifest{}, apperror.NewValidationError("A quantidade de cada item deve ser positiva.")
		}
		manifest.Items[i].ID = uuid.New().String()
		manifest.Items[i].ManifestID = manifest.ID
		manifest.Items[i].ScanEvents = nil
		manifest.Items[i].Version = 1
		// Timestamps distintos preservam a ordem de criação na leitura.
		manifest.Items[i].CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
	}

	created, err := s.repo.CreateManifest(ctx, manifest)
	if err != nil {
		s.logger.Error("Falha ao criar romaneio no repositório.", err)
		return domain.Manifest{}, err
	}

	s.logger.Info("Romaneio criado com sucesso.", map[string]interface{}{"manifest_id": created.ID, "items": len(created.Items)})
	return created, nil
}

// GetManifest busca um romaneio com itens e produtos resolvidos.
func (s *Service) GetManifest(ctx context.Context, id string) (domain.Manifest, error) {
	// Validação de formato antes de qualquer chamada ao backend.
	if _, err := uuid.Parse(id); err != nil {
		return domain.Manifest{}, apperror.NewValidationError("O ID do romaneio deve ser um UUID válido.")
	}

	manifest, err := s.repo.GetManifestWithItems(ctx, id)
	if err != nil {
		// Erros do repositório já são NotFoundError ou DBError.
		return domain.Manifest{}, err
	}
	return manifest, nil
}

// ListManifests lista os romaneios com filtro e paginação.
func (s *Service) ListManifests(ctx context.Context, filter domain.ManifestFilter) ([]domain.Manifest, error) {
	if filter.Status != "" && filter.Status != domain.ManifestOpen && filter.Status != domain.ManifestFinalized {
		return nil, apperror.NewValidationError("Status de romaneio inválido. Use 'open' ou 'finalized'.")
	}
	return s.repo.ListManifests(ctx, filter)
}

// AddItem adiciona um item a um romaneio ainda aberto.
func (s *Service) AddItem(ctx context.Context, manifestID string, item domain.ManifestItem) (domain.ManifestItem, error) {
	s.logger.Debug("Iniciando adição de item ao romaneio no serviço.", map[string]interface{}{"manifest_id": manifestID, "product_id": item.ProductID})

	if _, err := uuid.Parse(manifestID); err != nil {
		return domain.ManifestItem{}, apperror.NewValidationError("O ID do romaneio deve ser um UUID válido.")
	}
	if _, err := uuid.Parse(item.ProductID); err != nil {
		return domain.ManifestItem{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	if !item.Quantity.IsPositive() {
		return domain.ManifestItem{}, apperror.NewValidationError("A quantidade do item deve ser positiva.")
	}

	manifest, err := s.repo.GetManifestWithItems(ctx, manifestID)
	if err != nil {
		return domain.ManifestItem{}, err
	}
	if manifest.Status != domain.ManifestOpen {
		return domain.ManifestItem{}, apperror.NewConflictError("Itens só podem ser adicionados a um romaneio aberto.")
	}

	item.ID = uuid.New().String()
	item.ManifestID = manifestID
	item.ScanEvents = nil
	item.Version = 1
	item.CreatedAt = time.Now().UTC()

	created, err := s.repo.AddItem(ctx, item)
	if err != nil {
		s.logger.Error("Falha ao adicionar item ao romaneio no repositório.", err)
		return domain.ManifestItem{}, err
	}

	s.logger.Info("Item adicionado ao romaneio.", map[string]interface{}{"manifest_id": manifestID, "item_id": created.ID})
	return created, nil
}

// RecordScan registra uma bipagem contra o romaneio: localiza o item pelo
// código lido (ID do item ou ID do produto), aplica o teto de quantidade e
// anexa o timestamp de captura ao log append-only do item.
//
// A escrita é condicional (versão do item): se outro operador conferiu o mesmo
// item primeiro, o repositório devolve ConflictError e nenhum estado local
// mutado escapa; o chamador recarrega o romaneio e tenta de novo.
func (s *Service) RecordScan(ctx context.Context, manifestID string, code string) (domain.ManifestItem, error) {
	s.logger.Debug("Iniciando bipagem no serviço.", map[string]interface{}{"manifest_id": manifestID, "code": code})

	if _, err := uuid.Parse(manifestID); err != nil {
		return domain.ManifestItem{}, apperror.NewValidationError("O ID do romaneio deve ser um UUID válido.")
	}
	if code == "" {
		return domain.ManifestItem{}, apperror.NewValidationError("O código bipado não pode ser vazio.")
	}

	manifest, err := s.repo.GetManifestWithItems(ctx, manifestID)
	if err != nil {
		return domain.ManifestItem{}, err
	}
	if manifest.Status == domain.ManifestFinalized {
		return domain.ManifestItem{}, apperror.NewConflictError("O romaneio já foi finalizado; não aceita novas bipagens.")
	}

	idx := manifest.FindItem(code)
	if idx < 0 {
		// Produto bipado não pertence a este romaneio.
		return domain.ManifestItem{}, apperror.NewNotFoundError("O produto bipado não faz parte deste romaneio.")
	}
	item := manifest.Items[idx]

	// Teto de quantidade: único controle de admissão da conferência.
	currentCount := decimal.NewFromInt(int64(item.ScannedCount()))
	if currentCount.GreaterThanOrEqual(item.Quantity) {
		s.logger.Warn("Bipagem rejeitada: item já atingiu a quantidade do romaneio.", map[string]interface{}{
			"manifest_id": manifestID,
			"item_id":     item.ID,
			"scanned":     item.ScannedCount(),
			"quantity":    item.Quantity.String(),
		})
		return domain.ManifestItem{}, apperror.NewConflictError("O item já atingiu a quantidade do romaneio.")
	}

	// Timestamp de captura do servidor, não do leitor.
	scanEvents := make([]time.Time, 0, len(item.ScanEvents)+1)
	scanEvents = append(scanEvents, item.ScanEvents...)
	scanEvents = append(scanEvents, time.Now().UTC())

	updated, err := s.repo.UpdateItemScans(ctx, item.ID, scanEvents, item.Version)
	if err != nil {
		s.logger.Error("Falha ao persistir bipagem no repositório.", err)
		return domain.ManifestItem{}, err
	}

	// O RETURNING não passa pelo join com o catálogo; reaproveita os campos
	// resolvidos na leitura do romaneio.
	updated.ProductName = item.ProductName
	updated.ProductUnit = item.ProductUnit

	s.logger.Info("Bipagem registrada.", map[string]interface{}{
		"manifest_id": manifestID,
		"item_id":     updated.ID,
		"scanned":     updated.ScannedCount(),
		"quantity":    updated.Quantity.String(),
	})
	return updated, nil
}

// Finalize aplica a transição irreversível open -> finalized. A completude é
// reavaliada aqui mesmo que a UI já tenha desabilitado a ação; romaneio já
// finalizado apenas reemite a escrita idempotente do valor terminal.
func (s *Service) Finalize(ctx context.Context, id string) (domain.Manifest, error) {
	s.logger.Debug("Iniciando finalização de romaneio no serviço.", map[string]interface{}{"manifest_id": id})

	if _, err := uuid.Parse(id); err != nil {
		return domain.Manifest{}, apperror.NewValidationError("O ID do romaneio deve ser um UUID válido.")
	}

	manifest, err := s.repo.GetManifestWithItems(ctx, id)
	if err != nil {
		return domain.Manifest{}, err
	}

	if !manifest.IsComplete() {
		s.logger.Warn("Finalização rejeitada: romaneio incompleto.", map[string]interface{}{"manifest_id": id})
		return domain.Manifest{}, apperror.NewConflictError("O romaneio ainda tem itens não conferidos.")
	}

	updated, err := s.repo.UpdateManifestStatus(ctx, id, domain.ManifestFinalized)
	if err != nil {
		// Falha de finalização é falha, não sucesso com aviso.
		s.logger.Error("Falha ao finalizar romaneio no repositório.", err)
		return domain.Manifest{}, err
	}
	updated.Items = manifest.Items

	s.logger.Info("Romaneio finalizado com sucesso.", map[string]interface{}{"manifest_id": id})
	return updated, nil
}

// DeleteManifest remove um romaneio. Permitido apenas enquanto aberto e sem
// nenhuma bipagem registrada.
func (s *Service) DeleteManifest(ctx context.Context, id string) error {
	s.logger.Debug("Iniciando deleção de romaneio no serviço.", map[string]interface{}{"manifest_id": id})

	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID do romaneio deve ser um UUID válido.")
	}

	manifest, err := s.repo.GetManifestWithItems(ctx, id)
	if err != nil {
		return err
	}
	if manifest.Status != domain.ManifestOpen {
		return apperror.NewConflictError("Somente romaneios abertos podem ser deletados.")
	}
	if manifest.TotalScanned() > 0 {
		return apperror.NewConflictError("O romaneio já tem bipagens registradas e não pode ser deletado.")
	}

	if err := s.repo.DeleteManifest(ctx, id); err != nil {
		s.logger.Error("Falha ao deletar romaneio no repositório.", err)
		return err
	}

	s.logger.Info("Romaneio deletado com sucesso.", map[string]interface{}{"manifest_id": id})
	return nil
}
