package manifestrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/domain"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/errors"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/logger"
)

// ManifestRepository implementa o acesso a dados dos romaneios e seus itens.
type ManifestRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewManifestRepository cria e retorna uma nova instância do Repositório de Romaneios.
func NewManifestRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *ManifestRepository {
	return &ManifestRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const manifestColumns = `id, client_name, driver_name, vehicle_plate, status, created_at, updated_at`

// itemColumns traz o item já com nome e unidade do produto resolvidos por join.
const itemColumns = `
	i.id, i.manifest_id, i.product_id, i.quantity, i.scan_events,
	COALESCE(i.warehouse_floor, ''), COALESCE(i.warehouse_position, ''),
	i.version, i.created_at, p.name, p.unit`

// scanManifestRow mapeia uma linha de manifests para a struct de domínio.
func scanManifestRow(row *sql.Row, m *domain.Manifest) error {
	return row.Scan(
		&m.ID, &m.ClientName, &m.DriverName, &m.VehiclePlate,
		&m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
}

// scanItemColumns desserializa o log de bipagens (JSONB) junto com as demais colunas.
func scanItemColumns(scan func(dest ...interface{}) error, item *domain.ManifestItem) error {
	var rawEvents []byte
	err := scan(
		&item.ID, &item.ManifestID, &item.ProductID, &item.Quantity, &rawEvents,
		&item.WarehouseFloor, &item.WarehousePosition,
		&item.Version, &item.CreatedAt, &item.ProductName, &item.ProductUnit,
	)
	if err != nil {
		return err
	}
	if len(rawEvents) == 0 {
		item.ScanEvents = nil
		return nil
	}
	return json.Unmarshal(rawEvents, &item.ScanEvents)
}

// GetManifestWithItems busca um romaneio e seus itens, cada item com nome e
// unidade do produto resolvidos via join. Os itens vêm na ordem de criação.
func (r *ManifestRepository) GetManifestWithItems(ctx context.Context, id string) (domain.Manifest, error) {
	r.logger.Debug("Buscando romaneio com itens no repositório.", map[string]interface{}{"manifest_id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var manifest domain.Manifest
	query := `SELECT ` + manifestColumns + ` FROM manifests WHERE id = $1`
	err := scanManifestRow(r.DB.QueryRowContext(ctxTimeout, query, id), &manifest)

	if err == sql.ErrNoRows {
		r.logger.Info("Romaneio não encontrado.", map[string]interface{}{"manifest_id": id})
		return domain.Manifest{}, errors.NewNotFoundError(fmt.Sprintf("Romaneio com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar romaneio no DB.", err)
		return domain.Manifest{}, errors.NewDBError("Falha ao buscar romaneio", err)
	}

	itemsQuery := `
		SELECT ` + itemColumns + `
		FROM manifest_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.manifest_id = $1
		ORDER BY i.created_at, i.id`

	rows, err := r.DB.QueryContext(ctxTimeout, itemsQuery, id)
	if err != nil {
		r.logger.Error("Falha ao buscar itens do romaneio no DB.", err)
		return domain.Manifest{}, errors.NewDBError("Falha ao buscar itens do romaneio", err)
	}
	defer rows.Close()

	manifest.Items = []domain.ManifestItem{}
	for rows.Next() {
		var item domain.ManifestItem
		if err := scanItemColumns(rows.Scan, &item); err != nil {
			r.logger.Error("Falha ao mapear item do romaneio.", err)
			return domain.Manifest{}, errors.NewDBError("Falha ao mapear item do romaneio", err)
		}
		manifest.Items = append(manifest.Items, item)
	}
	if err := rows.Err(); err != nil {
		return domain.Manifest{}, errors.NewDBError("Falha ao iterar itens do romaneio", err)
	}

	return manifest, nil
}

// CreateManifest persiste um novo romaneio e seus itens iniciais em uma transação.
func (r *ManifestRepository) CreateManifest(ctx context.Context, manifest domain.Manifest) (domain.Manifest, error) {
	r.logger.Debug("Iniciando CreateManifest no repositório.", map[string]interface{}{"client_name": manifest.ClientName})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Manifest{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	const manifestSQL = `
		INSERT INTO manifests (id, client_name, driver_name, vehicle_plate, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.ExecContext(ctxTimeout, manifestSQL,
		manifest.ID, manifest.ClientName, manifest.DriverName, manifest.VehiclePlate,
		manifest.Status, manifest.CreatedAt, manifest.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir romaneio no DB.", err)
		return domain.Manifest{}, errors.NewDBError("Falha ao criar romaneio", err)
	}

	const itemSQL = `
		INSERT INTO manifest_items
			(id, manifest_id, product_id, quantity, scan_events, warehouse_floor, warehouse_position, version, created_at)
		VALUES ($1, $2, $3, $4, '[]'::jsonb, $5, $6, 1, $7)`

	for _, item := range manifest.Items {
		_, err = tx.ExecContext(ctxTimeout, itemSQL,
			item.ID, manifest.ID, item.ProductID, item.Quantity,
			item.WarehouseFloor, item.WarehousePosition, item.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Falha ao inserir item do romaneio no DB.", err)
			return domain.Manifest{}, errors.NewDBError("Falha ao criar item do romaneio", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Manifest{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Romaneio criado com sucesso.", map[string]interface{}{"manifest_id": manifest.ID, "items": len(manifest.Items)})
	return manifest, nil
}

// AddItem insere um novo item em um romaneio existente.
func (r *ManifestRepository) AddItem(ctx context.Context, item domain.ManifestItem) (domain.ManifestItem, error) {
	r.logger.Debug("Adicionando item ao romaneio no repositório.", map[string]interface{}{"manifest_id": item.ManifestID, "product_id": item.ProductID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		INSERT INTO manifest_items
			(id, manifest_id, product_id, quantity, scan_events, warehouse_floor, warehouse_position, version, created_at)
		VALUES ($1, $2, $3, $4, '[]'::jsonb, $5, $6, 1, $7)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		item.ID, item.ManifestID, item.ProductID, item.Quantity,
		item.WarehouseFloor, item.WarehousePosition, item.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir item do romaneio no DB.", err)
		return domain.ManifestItem{}, errors.NewDBError("Falha ao adicionar item ao romaneio", err)
	}

	item.Version = 1
	item.ScanEvents = nil
	return item, nil
}

// ListManifests lista os romaneios (sem itens) com filtro de status e paginação.
func (r *ManifestRepository) ListManifests(ctx context.Context, filter domain.ManifestFilter) ([]domain.Manifest, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	query := `SELECT ` + manifestColumns + ` FROM manifests`
	args := []interface{}{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filter.Status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, filter.Limit, offset)

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar romaneios no DB.", err)
		return nil, errors.NewDBError("Falha ao listar romaneios", err)
	}
	defer rows.Close()

	manifests := []domain.Manifest{}
	for rows.Next() {
		var m domain.Manifest
		if err := rows.Scan(&m.ID, &m.ClientName, &m.DriverName, &m.VehiclePlate, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao mapear romaneio", err)
		}
		manifests = append(manifests, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar romaneios", err)
	}

	return manifests, nil
}

// UpdateItemScans persiste o log de bipagens de um item com escrita condicional
// (compare-and-swap na coluna version). Se a versão esperada não bater, outro
// operador gravou primeiro: retornamos ConflictError em vez de sobrescrever,
// para que duas conferências simultâneas nunca se percam silenciosamente.
func (r *ManifestRepository) UpdateItemScans(ctx context.Context, itemID string, scanEvents []time.Time, expectedVersion int) (domain.ManifestItem, error) {
	r.logger.Debug("Persistindo bipagens do item no repositório.", map[string]interface{}{
		"item_id":          itemID,
		"scan_count":       len(scanEvents),
		"expected_version": expectedVersion,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if scanEvents == nil {
		scanEvents = []time.Time{}
	}
	rawEvents, err := json.Marshal(scanEvents)
	if err != nil {
		return domain.ManifestItem{}, errors.NewInternalError("Falha ao serializar bipagens do item.", err)
	}

	const query = `
		UPDATE manifest_items
		SET scan_events = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING id, manifest_id, product_id, quantity, scan_events,
		          COALESCE(warehouse_floor, ''), COALESCE(warehouse_position, ''),
		          version, created_at`

	var item domain.ManifestItem
	var returnedEvents []byte
	err = r.DB.QueryRowContext(ctxTimeout, query, rawEvents, itemID, expectedVersion).Scan(
		&item.ID, &item.ManifestID, &item.ProductID, &item.Quantity, &returnedEvents,
		&item.WarehouseFloor, &item.WarehousePosition, &item.Version, &item.CreatedAt,
	)

	if err == sql.ErrNoRows {
		// Nenhuma linha: ou o item sumiu, ou a versão está desatualizada.
		var currentVersion int
		checkErr := r.DB.QueryRowContext(ctxTimeout, `SELECT version FROM manifest_items WHERE id = $1`, itemID).Scan(&currentVersion)
		if checkErr == sql.ErrNoRows {
			return domain.ManifestItem{}, errors.NewNotFoundError(fmt.Sprintf("Item %s não existe na base de dados.", itemID))
		}
		if checkErr != nil {
			return domain.ManifestItem{}, errors.NewDBError("Falha ao verificar versão do item", checkErr)
		}
		r.logger.Warn("Falha no controle de concorrência otimista (OCC) ao gravar bipagens.", map[string]interface{}{
			"item_id":          itemID,
			"expected_version": expectedVersion,
			"current_version":  currentVersion,
		})
		return domain.ManifestItem{}, errors.NewConflictError("O item foi conferido por outra operação. Recarregue o romaneio e tente novamente.")
	}
	if err != nil {
		r.logger.Error("Falha ao gravar bipagens do item no DB.", err)
		return domain.ManifestItem{}, errors.NewDBError("Falha ao gravar bipagens do item", err)
	}

	if err := json.Unmarshal(returnedEvents, &item.ScanEvents); err != nil {
		return domain.ManifestItem{}, errors.NewInternalError("Falha ao desserializar bipagens do item.", err)
	}

	return item, nil
}

// UpdateManifestStatus grava o status do romaneio. Usado apenas na transição
// open -> finalized; a escrita é idempotente no valor terminal.
func (r *ManifestRepository) UpdateManifestStatus(ctx context.Context, id string, status domain.ManifestStatus) (domain.Manifest, error) {
	r.logger.Debug("Atualizando status do romaneio no repositório.", map[string]interface{}{"manifest_id": id, "status": status})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		UPDATE manifests
		SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + manifestColumns

	var manifest domain.Manifest
	err := scanManifestRow(r.DB.QueryRowContext(ctxTimeout, query, status, time.Now().UTC(), id), &manifest)

	if err == sql.ErrNoRows {
		// A linha sumiu entre a leitura e a escrita.
		return domain.Manifest{}, errors.NewNotFoundError(fmt.Sprintf("Romaneio com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar status do romaneio no DB.", err)
		return domain.Manifest{}, errors.NewDBError("Falha ao atualizar status do romaneio", err)
	}

	r.logger.Info("Status do romaneio atualizado.", map[string]interface{}{"manifest_id": id, "status": status})
	return manifest, nil
}

// DeleteManifest remove o romaneio e seus itens em cascata (itens primeiro,
// depois o pai), em uma única transação.
func (r *ManifestRepository) DeleteManifest(ctx context.Context, id string) error {
	r.logger.Debug("Deletando romaneio no repositório.", map[string]interface{}{"manifest_id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctxTimeout, `DELETE FROM manifest_items WHERE manifest_id = $1`, id); err != nil {
		r.logger.Error("Falha ao deletar itens do romaneio no DB.", err)
		return errors.NewDBError("Falha ao deletar itens do romaneio", err)
	}

	result, err := tx.ExecContext(ctxTimeout, `DELETE FROM manifests WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar romaneio no DB.", err)
		return errors.NewDBError("Falha ao deletar romaneio", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Romaneio com ID %s não existe na base de dados.", id))
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Romaneio deletado com sucesso.", map[string]interface{}{"manifest_id": id})
	return nil
}
