package positionservice_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/domain"
	apperror "github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/errors"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/logger"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/service/positionservice"
)

// MockPositionRepository é uma implementação mock da interface PositionRepository
type MockPositionRepository struct {
	mock.Mock
}

func (m *MockPositionRepository) Create(ctx context.Context, position domain.Position) (domain.Position, error) {
	args := m.Called(ctx, position)
	return args.Get(0).(domain.Position), args.Error(1)
}

func (m *MockPositionRepository) FindAll(ctx context.Context, floor string) ([]domain.Position, error) {
	args := m.Called(ctx, floor)
	return args.Get(0).([]domain.Position), args.Error(1)
}

func (m *MockPositionRepository) Suggest(ctx context.Context, quantity decimal.Decimal) (domain.Position, error) {
	args := m.Called(ctx, quantity)
	return args.Get(0).(domain.Position), args.Error(1)
}

func newTestLogger() logger.Logger {
	return logger.NewLogger("error")
}

func TestCreatePosition_Success(t *testing.T) {
	mockRepo := new(MockPositionRepository)
	svc := positionservice.NewService(mockRepo, newTestLogger())

	input := domain.Position{Floor: "A", Code: "A-01", Capacity: decimal.NewFromInt(100)}

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(p domain.Position) bool {
		return p.ID != "" && p.Occupied.IsZero()
	})).Return(input, nil)

	_, err := svc.CreatePosition(context.Background(), input)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCreatePosition_Fail_MissingCode(t *testing.T) {
	mockRepo := new(MockPositionRepository)
	svc := positionservice.NewService(mockRepo, newTestLogger())

	_, err := svc.CreatePosition(context.Background(), domain.Position{
		Floor:    "A",
		Capacity: decimal.NewFromInt(100),
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestSuggestPosition_Success(t *testing.T) {
	mockRepo := new(MockPositionRepository)
	svc := positionservice.NewService(mockRepo, newTestLogger())

	qty := decimal.NewFromInt(10)
	expected := domain.Position{Floor: "A", Code: "A-01", Capacity: decimal.NewFromInt(100)}

	mockRepo.On("Suggest", mock.Anything, qty).Return(expected, nil)

	result, err := svc.SuggestPosition(context.Background(), qty)

	assert.NoError(t, err)
	assert.Equal(t, "A-01", result.Code)
	mockRepo.AssertExpectations(t)
}

func TestSuggestPosition_Fail_NonPositiveQuantity(t *testing.T) {
	mockRepo := new(MockPositionRepository)
	svc := positionservice.NewService(mockRepo, newTestLogger())

	_, err := svc.SuggestPosition(context.Background(), decimal.Zero)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Suggest")
}

// TestSuggestPosition_Fail_NoSpace verifica que armazém cheio propaga como
// NotFoundError, não como erro interno.
func TestSuggestPosition_Fail_NoSpace(t *testing.T) {
	mockRepo := new(MockPositionRepository)
	svc := positionservice.NewService(mockRepo, newTestLogger())

	qty := decimal.NewFromInt(9999)
	mockRepo.On("Suggest", mock.Anything, qty).
		Return(domain.Position{}, apperror.NewNotFoundError("Nenhuma posição com espaço disponível."))

	_, err := svc.SuggestPosition(context.Background(), qty)

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
}
