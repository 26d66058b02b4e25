package movementrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/domain"
	apperror "github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/errors"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/logger"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/repository/movementrepo"
)

func newTestRepo(t *testing.T) (*movementrepo.MovementRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("falha ao criar o mock do DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := movementrepo.NewMovementRepository(db, 5*time.Second, logger.NewLogger("error"))
	return repo, mock
}

func testMovement(movType domain.MovementType, quantity int64) domain.Movement {
	return domain.Movement{
		ID:        uuid.New().String(),
		ProductID: uuid.New().String(),
		Type:      movType,
		Quantity:  decimal.NewFromInt(quantity),
		Floor:     "A",
		Position:  "A-01",
		CreatedBy: uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
}

// TestRecord_Fail_OutputExceedsProductBalance verifica que a saída de um
// produto é barrada pelo saldo daquele produto, não só pela ocupação da
// posição. Uma posição preenchida por outro produto não pode cobrir a saída:
// sem este guarda, dar saída no produto errado deixaria o estoque negativo.
func TestRecord_Fail_OutputExceedsProductBalance(t *testing.T) {
	repo, mock := newTestRepo(t)
	movement := testMovement(domain.MovementOutput, 5)

	mock.ExpectBegin()
	// Saldo apurado na mesma transação: só 2 unidades deste produto entraram.
	mock.ExpectQuery(`SELECT COALESCE\(SUM`).
		WithArgs(movement.ProductID).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("2"))
	mock.ExpectRollback()

	_, err := repo.Record(context.Background(), movement)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_Success_Input(t *testing.T) {
	repo, mock := newTestRepo(t)
	movement := testMovement(domain.MovementInput, 10)

	mock.ExpectBegin()
	// Entrada não consulta saldo: vai direto ao ajuste de ocupação.
	mock.ExpectExec(`UPDATE positions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO movements`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	recorded, err := repo.Record(context.Background(), movement)

	assert.NoError(t, err)
	assert.Equal(t, movement.ID, recorded.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_Success_OutputWithinBalance(t *testing.T) {
	repo, mock := newTestRepo(t)
	movement := testMovement(domain.MovementOutput, 5)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(SUM`).
		WithArgs(movement.ProductID).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("10"))
	mock.ExpectExec(`UPDATE positions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO movements`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.Record(context.Background(), movement)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestRecord_Fail_PositionNotFound verifica a distinção entre posição
// inexistente (404) e limite de ocupação violado (409) quando o ajuste não
// afeta nenhuma linha.
func TestRecord_Fail_PositionNotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	movement := testMovement(domain.MovementInput, 10)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE positions`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(movement.Floor, movement.Position).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := repo.Record(context.Background(), movement)

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_Fail_OccupancyLimit(t *testing.T) {
	repo, mock := newTestRepo(t)
	movement := testMovement(domain.MovementInput, 999)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE positions`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(movement.Floor, movement.Position).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.Record(context.Background(), movement)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
