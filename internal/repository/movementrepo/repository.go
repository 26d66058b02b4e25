package movementrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/domain"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/errors"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/logger"
)

// MovementRepository implementa o acesso a dados das movimentações de estoque.
type MovementRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewMovementRepository cria e retorna uma nova instância do Repositório de Movimentações.
func NewMovementRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *MovementRepository {
	return &MovementRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Record grava a movimentação e ajusta a ocupação da posição na mesma
// transação: entrada soma, saída subtrai. O ajuste é condicionado a
// 0 <= ocupação resultante <= capacidade, direto no SQL. A transação garante
// que o registro e a ocupação nunca divergem.
//
// Saídas passam também pelo saldo do produto: a soma das entradas menos as
// saídas já registradas. Uma posição pode guardar produtos diferentes, então o
// limite de ocupação sozinho não impede que a saída de um produto drene o
// saldo de outro.
func (r *MovementRepository) Record(ctx context.Context, movement domain.Movement) (domain.Movement, error) {
	r.logger.Debug("Iniciando Record no repositório de movimentações.", map[string]interface{}{
		"product_id": movement.ProductID,
		"type":       string(movement.Type),
		"quantity":   movement.Quantity.String(),
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Movement{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	delta := movement.Quantity
	if movement.Type == domain.MovementOutput {
		delta = delta.Neg()

		const balanceSQL = `
			SELECT COALESCE(SUM(CASE WHEN type = 'input' THEN quantity ELSE -quantity END), 0)
			FROM movements
			WHERE product_id = $1`

		var balance decimal.Decimal
		if err := tx.QueryRowContext(ctxTimeout, balanceSQL, movement.ProductID).Scan(&balance); err != nil {
			r.logger.Error("Falha ao apurar saldo do produto no DB.", err)
			return domain.Movement{}, errors.NewDBError("Falha ao apurar saldo do produto", err)
		}
		if balance.LessThan(movement.Quantity) {
			r.logger.Warn("Saída rejeitada: saldo do produto insuficiente.", map[string]interface{}{
				"product_id": movement.ProductID,
				"balance":    balance.String(),
				"quantity":   movement.Quantity.String(),
			})
			return domain.Movement{}, errors.NewConflictError("A saída excede o saldo em estoque do produto.")
		}
	}

	const occupancySQL = `
		UPDATE positions
		SET occupied = occupied + $1, updated_at = $2
		WHERE floor = $3 AND code = $4
		  AND occupied + $1 >= 0
		  AND occupied + $1 <= capacity`

	result, err := tx.ExecContext(ctxTimeout, occupancySQL, delta, time.Now().UTC(), movement.Floor, movement.Position)
	if err != nil {
		r.logger.Error("Falha ao ajustar ocupação da posição no DB.", err)
		return domain.Movement{}, errors.NewDBError("Falha ao ajustar ocupação da posição", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Movement{}, errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		// Ou a posição não existe, ou o ajuste violaria os limites de ocupação.
		var exists bool
		checkErr := tx.QueryRowContext(ctxTimeout,
			`SELECT EXISTS (SELECT 1 FROM positions WHERE floor = $1 AND code = $2)`,
			movement.Floor, movement.Position,
		).Scan(&exists)
		if checkErr != nil {
			return domain.Movement{}, errors.NewDBError("Falha ao verificar posição", checkErr)
		}
		if !exists {
			return domain.Movement{}, errors.NewNotFoundError(fmt.Sprintf("Posição %s/%s não existe na base de dados.", movement.Floor, movement.Position))
		}
		r.logger.Warn("Movimentação rejeitada pelos limites de ocupação da posição.", map[string]interface{}{
			"floor":    movement.Floor,
			"position": movement.Position,
			"delta":    delta.String(),
		})
		return domain.Movement{}, errors.NewConflictError("A movimentação excede a capacidade ou o saldo da posição.")
	}

	const movementSQL = `
		INSERT INTO movements (id, product_id, type, quantity, floor, position, note, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = tx.ExecContext(ctxTimeout, movementSQL,
		movement.ID, movement.ProductID, movement.Type, movement.Quantity,
		movement.Floor, movement.Position, movement.Note, movement.CreatedBy, movement.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir movimentação no DB.", err)
		return domain.Movement{}, errors.NewDBError("Falha ao registrar movimentação", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Movement{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Movimentação registrada com sucesso.", map[string]interface{}{
		"id":         movement.ID,
		"product_id": movement.ProductID,
		"type":       string(movement.Type),
	})
	return movement, nil
}

// FindAll lista as movimentações com filtros e paginação, sempre com nome e
// unidade do produto resolvidos por join.
func (r *MovementRepository) FindAll(ctx context.Context, filter domain.MovementFilter) ([]domain.Movement, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	query := `
		SELECT m.id, m.product_id, m.type, m.quantity, m.floor, m.position,
		       COALESCE(m.note, ''), m.created_by, m.created_at, p.name, p.unit
		FROM movements m
		JOIN products p ON p.id = m.product_id
		WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if filter.ProductID != "" {
		query += fmt.Sprintf(` AND m.product_id = $%d`, argPos)
		args = append(args, filter.ProductID)
		argPos++
	}
	if filter.Type != "" {
		query += fmt.Sprintf(` AND m.type = $%d`, argPos)
		args = append(args, filter.Type)
		argPos++
	}
	query += fmt.Sprintf(` ORDER BY m.created_at DESC LIMIT %d OFFSET %d`, filter.Limit, offset)

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar movimentações no DB.", err)
		return nil, errors.NewDBError("Falha ao listar movimentações", err)
	}
	defer rows.Close()

	movements := []domain.Movement{}
	for rows.Next() {
		var m domain.Movement
		if err := rows.Scan(
			&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.Floor, &m.Position,
			&m.Note, &m.CreatedBy, &m.CreatedAt, &m.ProductName, &m.ProductUnit,
		); err != nil {
			return nil, errors.NewDBError("Falha ao mapear movimentação", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar movimentações", err)
	}

	return movements, nil
}
