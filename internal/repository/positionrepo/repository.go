package positionrepo

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

// PositionRepository implementa o acesso a dados das posições de armazenagem.
type PositionRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewPositionRepository cria e retorna uma nova instância do Repositório de Posições.
func NewPositionRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *PositionRepository {
	return &PositionRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const positionColumns = `id, floor, code, capacity, occupied, created_at, updated_at`

// Create insere uma nova posição de armazenagem.
func (r *PositionRepository) Create(ctx context.Context, position domain.Position) (domain.Position, error) {
	r.logger.Debug("Iniciando Create no repositório de posições.", map[string]interface{}{"floor": position.Floor, "code": position.Code})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		INSERT INTO positions (id, floor, code, capacity, occupied, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + positionColumns

	err := r.DB.QueryRowContext(ctxTimeout, query,
		position.ID, position.Floor, position.Code, position.Capacity,
		position.Occupied, position.CreatedAt, position.UpdatedAt,
	).Scan(
		&position.ID, &position.Floor, &position.Code, &position.Capacity,
		&position.Occupied, &position.CreatedAt, &position.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir posição no DB.", err)
		return domain.Position{}, errors.NewDBError("Falha ao criar posição", err)
	}

	r.logger.Info("Posição criada com sucesso.", map[string]interface{}{"id": position.ID, "floor": position.Floor, "code": position.Code})
	return position, nil
}

// FindAll lista as posições, opcionalmente filtradas por andar, na ordem do endereço.
func (r *PositionRepository) FindAll(ctx context.Context, floor string) ([]domain.Position, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + positionColumns + ` FROM positions`
	args := []interface{}{}
	if floor != "" {
		query += ` WHERE floor = $1`
		args = append(args, floor)
	}
	query += ` ORDER BY floor, code`

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar posições no DB.", err)
		return nil, errors.NewDBError("Falha ao listar posições", err)
	}
	defer rows.Close()

	positions := []domain.Position{}
	for rows.Next() {
		var p domain.Position
		if err := rows.Scan(&p.ID, &p.Floor, &p.Code, &p.Capacity, &p.Occupied, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao mapear posição", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar posições", err)
	}

	return positions, nil
}

// Suggest retorna a primeira posição (na ordem andar + endereço) com espaço
// livre suficiente para a quantidade informada. Rende a função de lookup de
// posição usada na montagem de romaneios.
func (r *PositionRepository) Suggest(ctx context.Context, quantity decimal.Decimal) (domain.Position, error) {
	r.logger.Debug("Buscando sugestão de posição no repositório.", map[string]interface{}{"quantity": quantity.String()})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE capacity - occupied >= $1
		ORDER BY floor, code
		LIMIT 1`

	var p domain.Position
	err := r.DB.QueryRowContext(ctxTimeout, query, quantity).Scan(
		&p.ID, &p.Floor, &p.Code, &p.Capacity, &p.Occupied, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return domain.Position{}, errors.NewNotFoundError(fmt.Sprintf("Nenhuma posição com espaço livre para a quantidade %s.", quantity.String()))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar sugestão de posição no DB.", err)
		return domain.Position{}, errors.NewDBError("Falha ao buscar sugestão de posição", err)
	}

	return p, nil
}
