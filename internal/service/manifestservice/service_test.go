package manifestservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/domain"
	apperror "github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/errors"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/logger"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/service/manifestservice"
)

// MockManifestRepository é uma implementação mock da interface ManifestRepository
type MockManifestRepository struct {
	mock.Mock
}

func (m *MockManifestRepository) GetManifestWithItems(ctx context.Context, id string) (domain.Manifest, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Manifest), args.Error(1)
}

func (m *MockManifestRepository) CreateManifest(ctx context.Context, manifest domain.Manifest) (domain.Manifest, error) {
	args := m.Called(ctx, manifest)
	return args.Get(0).(domain.Manifest), args.Error(1)
}

func (m *MockManifestRepository) AddItem(ctx context.Context, item domain.ManifestItem) (domain.ManifestItem, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(domain.ManifestItem), args.Error(1)
}

func (m *MockManifestRepository) ListManifests(ctx context.Context, filter domain.ManifestFilter) ([]domain.Manifest, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Manifest), args.Error(1)
}

func (m *MockManifestRepository) UpdateItemScans(ctx context.Context, itemID string, scanEvents []time.Time, expectedVersion int) (domain.ManifestItem, error) {
	args := m.Called(ctx, itemID, scanEvents, expectedVersion)
	return args.Get(0).(domain.ManifestItem), args.Error(1)
}

func (m *MockManifestRepository) UpdateManifestStatus(ctx context.Context, id string, status domain.ManifestStatus) (domain.Manifest, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(domain.Manifest), args.Error(1)
}

func (m *MockManifestRepository) DeleteManifest(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Helpers de construção de dados de teste

func newTestLogger() logger.Logger {
	return logger.NewLogger("error")
}

func buildItem(quantity int64, scanned int) domain.ManifestItem {
	item := domain.ManifestItem{
		ID:          uuid.New().String(),
		ProductID:   uuid.New().String(),
		Quantity:    decimal.NewFromInt(quantity),
		Version:     scanned + 1,
		ProductName: "Produto Teste",
		ProductUnit: "un",
		CreatedAt:   time.Now(),
	}
	for i := 0; i < scanned; i++ {
		item.ScanEvents = append(item.ScanEvents, time.Now().UTC())
	}
	return item
}

func buildManifest(status domain.ManifestStatus, items ...domain.ManifestItem) domain.Manifest {
	return domain.Manifest{
		ID:           uuid.New().String(),
		ClientName:   "Cliente Teste",
		DriverName:   "Motorista Teste",
		VehiclePlate: "ABC1D23",
		Status:       status,
		Items:        items,
	}
}

// --- Testes para RecordScan (conferência por bipagem) ---

// TestRecordScan_Success_ByItemID testa uma bipagem bem-sucedida localizando o item pelo ID.
func TestRecordScan_Success_ByItemID(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	item := buildItem(2, 1)
	manifest := buildManifest(domain.ManifestOpen, item)

	updated := item
	updated.ScanEvents = append(append([]time.Time{}, item.ScanEvents...), time.Now().UTC())
	updated.Version = item.Version + 1

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)
	mockRepo.On("UpdateItemScans", mock.Anything, item.ID, mock.AnythingOfType("[]time.Time"), item.Version).
		Return(updated, nil)

	result, err := svc.RecordScan(context.Background(), manifest.ID, item.ID)

	assert.NoError(t, err)
	assert.Equal(t, 2, result.ScannedCount())
	assert.True(t, result.IsComplete())
	assert.Equal(t, item.ProductName, result.ProductName)
	mockRepo.AssertExpectations(t)
}

// TestRecordScan_Success_ByProductID testa que o código bipado pode ser o ID do
// produto (o leitor emite o código do produto, não o da linha do romaneio).
func TestRecordScan_Success_ByProductID(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	item := buildItem(3, 0)
	manifest := buildManifest(domain.ManifestOpen, item)

	updated := item
	updated.ScanEvents = []time.Time{time.Now().UTC()}
	updated.Version = item.Version + 1

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)
	mockRepo.On("UpdateItemScans", mock.Anything, item.ID, mock.AnythingOfType("[]time.Time"), item.Version).
		Return(updated, nil)

	result, err := svc.RecordScan(context.Background(), manifest.ID, item.ProductID)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.ScannedCount())
	mockRepo.AssertExpectations(t)
}

// TestRecordScan_AppendsTimestamp verifica que a escrita carrega o log antigo
// mais exatamente um novo timestamp de captura.
func TestRecordScan_AppendsTimestamp(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	item := buildItem(5, 2)
	manifest := buildManifest(domain.ManifestOpen, item)

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)
	mockRepo.On("UpdateItemScans", mock.Anything, item.ID, mock.MatchedBy(func(events []time.Time) bool {
		if len(events) != 3 {
			return false
		}
		// Prefixo preservado: log append-only.
		return events[0].Equal(item.ScanEvents[0]) && events[1].Equal(item.ScanEvents[1])
	}), item.Version).Return(item, nil)

	_, err := svc.RecordScan(context.Background(), manifest.ID, item.ID)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestRecordScan_Fail_QuantityExceeded testa o teto de quantidade: a terceira
// bipagem de um item com quantidade 2 é rejeitada sem nenhuma mutação.
func TestRecordScan_Fail_QuantityExceeded(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	item := buildItem(2, 2) // Já completo
	manifest := buildManifest(domain.ManifestOpen, item)

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)

	_, err := svc.RecordScan(context.Background(), manifest.ID, item.ID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.Equal(t, 2, item.ScannedCount()) // Log inalterado
	mockRepo.AssertNotCalled(t, "UpdateItemScans")
}

// TestRecordScan_Fail_UnknownCode testa a bipagem de um código que não
// pertence ao romaneio.
func TestRecordScan_Fail_UnknownCode(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	manifest := buildManifest(domain.ManifestOpen, buildItem(2, 0))

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)

	_, err := svc.RecordScan(context.Background(), manifest.ID, uuid.New().String())

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	mockRepo.AssertNotCalled(t, "UpdateItemScans")
}

// TestRecordScan_Fail_InvalidManifestID testa a validação de formato antes de
// qualquer chamada ao backend.
func TestRecordScan_Fail_InvalidManifestID(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	_, err := svc.RecordScan(context.Background(), "nao-e-um-uuid", "qualquer-codigo")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "GetManifestWithItems")
}

// TestRecordScan_Fail_FinalizedManifest testa que romaneio finalizado não
// aceita novas bipagens.
func TestRecordScan_Fail_FinalizedManifest(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	item := buildItem(2, 2)
	manifest := buildManifest(domain.ManifestFinalized, item)

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)

	_, err := svc.RecordScan(context.Background(), manifest.ID, item.ID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertNotCalled(t, "UpdateItemScans")
}

// TestRecordScan_Fail_StaleVersion testa o cenário de duas conferências
// intercaladas contra o mesmo romaneio: a escrita condicional do repositório
// rejeita a versão desatualizada e o conflito chega ao chamador: a perda de
// dados é detectável, nunca um merge silencioso.
func TestRecordScan_Fail_StaleVersion(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	item := buildItem(5, 2)
	manifest := buildManifest(domain.ManifestOpen, item)

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)
	// Outro operador gravou primeiro: a versão esperada não bate mais.
	mockRepo.On("UpdateItemScans", mock.Anything, item.ID, mock.AnythingOfType("[]time.Time"), item.Version).
		Return(domain.ManifestItem{}, apperror.NewConflictError("O item foi conferido por outra operação. Recarregue o romaneio e tente novamente."))

	result, err := svc.RecordScan(context.Background(), manifest.ID, item.ID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	// Nenhum estado otimista escapa em caso de falha de persistência.
	assert.Equal(t, domain.ManifestItem{}, result)
	mockRepo.AssertExpectations(t)
}

// TestRecordScan_Fail_PersistError testa que falha de escrita no backend vira
// erro para o chamador, sem estado local divergente.
func TestRecordScan_Fail_PersistError(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	item := buildItem(2, 0)
	manifest := buildManifest(domain.ManifestOpen, item)

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)
	mockRepo.On("UpdateItemScans", mock.Anything, item.ID, mock.AnythingOfType("[]time.Time"), item.Version).
		Return(domain.ManifestItem{}, apperror.NewDBError("Falha ao gravar bipagens do item", assert.AnError))

	result, err := svc.RecordScan(context.Background(), manifest.ID, item.ID)

	assert.Error(t, err)
	assert.Equal(t, domain.ManifestItem{}, result)
}

// --- Testes para Finalize ---

// TestFinalize_Success_TwoItemScenario testa o cenário de referência: romaneio
// com quantidades 2 e 1, totalmente conferido, finaliza com sucesso.
func TestFinalize_Success_TwoItemScenario(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	itemA := buildItem(2, 2)
	itemB := buildItem(1, 1)
	manifest := buildManifest(domain.ManifestOpen, itemA, itemB)
	assert.True(t, manifest.IsComplete())

	finalized := manifest
	finalized.Status = domain.ManifestFinalized

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)
	mockRepo.On("UpdateManifestStatus", mock.Anything, manifest.ID, domain.ManifestFinalized).Return(finalized, nil)

	result, err := svc.Finalize(context.Background(), manifest.ID)

	assert.NoError(t, err)
	assert.Equal(t, domain.ManifestFinalized, result.Status)
	assert.Len(t, result.Items, 2)
	mockRepo.AssertExpectations(t)
}

// TestFinalize_Fail_Incomplete testa a reavaliação defensiva da completude:
// nenhuma escrita acontece com itens pendentes.
func TestFinalize_Fail_Incomplete(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	manifest := buildManifest(domain.ManifestOpen, buildItem(2, 2), buildItem(1, 0))

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)

	_, err := svc.Finalize(context.Background(), manifest.ID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertNotCalled(t, "UpdateManifestStatus")
}

// TestFinalize_AlreadyFinalized_Idempotent testa que finalizar duas vezes
// reemite a escrita idempotente do valor terminal e não é erro.
func TestFinalize_AlreadyFinalized_Idempotent(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	manifest := buildManifest(domain.ManifestFinalized, buildItem(1, 1))

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)
	mockRepo.On("UpdateManifestStatus", mock.Anything, manifest.ID, domain.ManifestFinalized).Return(manifest, nil)

	result, err := svc.Finalize(context.Background(), manifest.ID)

	assert.NoError(t, err)
	assert.Equal(t, domain.ManifestFinalized, result.Status)
	mockRepo.AssertExpectations(t)
}

// TestFinalize_Fail_PersistError testa que falha de finalização é reportada
// como falha, nunca mascarada como sucesso.
func TestFinalize_Fail_PersistError(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	manifest := buildManifest(domain.ManifestOpen, buildItem(1, 1))

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)
	mockRepo.On("UpdateManifestStatus", mock.Anything, manifest.ID, domain.ManifestFinalized).
		Return(domain.Manifest{}, apperror.NewDBError("Falha ao atualizar status do romaneio", assert.AnError))

	_, err := svc.Finalize(context.Background(), manifest.ID)

	assert.Error(t, err)
}

// --- Testes para CreateManifest ---

func TestCreateManifest_Success(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	input := domain.Manifest{
		ClientName: "Cliente Teste",
		DriverName: "Motorista Teste",
		Items: []domain.ManifestItem{
			{ProductID: uuid.New().String(), Quantity: decimal.NewFromInt(3)},
		},
	}

	mockRepo.On("CreateManifest", mock.Anything, mock.MatchedBy(func(m domain.Manifest) bool {
		return m.Status == domain.ManifestOpen &&
			m.ID != "" &&
			len(m.Items) == 1 &&
			m.Items[0].ID != "" &&
			m.Items[0].ManifestID == m.ID &&
			m.Items[0].Version == 1 &&
			len(m.Items[0].ScanEvents) == 0
	})).Return(input, nil)

	_, err := svc.CreateManifest(context.Background(), input)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCreateManifest_Fail_MissingClient(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	_, err := svc.CreateManifest(context.Background(), domain.Manifest{DriverName: "Motorista"})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "CreateManifest")
}

func TestCreateManifest_Fail_NonPositiveQuantity(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	input := domain.Manifest{
		ClientName: "Cliente",
		DriverName: "Motorista",
		Items: []domain.ManifestItem{
			{ProductID: uuid.New().String(), Quantity: decimal.Zero},
		},
	}

	_, err := svc.CreateManifest(context.Background(), input)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "CreateManifest")
}

// --- Testes para AddItem ---

func TestAddItem_Fail_NotOpen(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	manifest := buildManifest(domain.ManifestFinalized, buildItem(1, 1))

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)

	_, err := svc.AddItem(context.Background(), manifest.ID, domain.ManifestItem{
		ProductID: uuid.New().String(),
		Quantity:  decimal.NewFromInt(1),
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertNotCalled(t, "AddItem")
}

// --- Testes para DeleteManifest ---

func TestDeleteManifest_Success(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	manifest := buildManifest(domain.ManifestOpen, buildItem(2, 0))

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)
	mockRepo.On("DeleteManifest", mock.Anything, manifest.ID).Return(nil)

	err := svc.DeleteManifest(context.Background(), manifest.ID)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestDeleteManifest_Fail_WithScans(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	manifest := buildManifest(domain.ManifestOpen, buildItem(2, 1))

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)

	err := svc.DeleteManifest(context.Background(), manifest.ID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertNotCalled(t, "DeleteManifest")
}

func TestDeleteManifest_Fail_Finalized(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	manifest := buildManifest(domain.ManifestFinalized)

	mockRepo.On("GetManifestWithItems", mock.Anything, manifest.ID).Return(manifest, nil)

	err := svc.DeleteManifest(context.Background(), manifest.ID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	mockRepo.AssertNotCalled(t, "DeleteManifest")
}

// --- Testes para GetManifest ---

func TestGetManifest_Fail_NotFound(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	id := uuid.New().String()
	mockRepo.On("GetManifestWithItems", mock.Anything, id).
		Return(domain.Manifest{}, apperror.NewNotFoundError("Romaneio não existe."))

	_, err := svc.GetManifest(context.Background(), id)

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestGetManifest_Fail_InvalidID(t *testing.T) {
	mockRepo := new(MockManifestRepository)
	svc := manifestservice.NewService(mockRepo, newTestLogger())

	_, err := svc.GetManifest(context.Background(), "1234")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "GetManifestWithItems")
}
