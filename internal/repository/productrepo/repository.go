package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/domain"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/errors"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/cache"
	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/pkg/logger"
)

// productCacheKey define o formato da chave de cache de produtos.
const productCacheKey = "product:%s"

// CacheKey retorna a chave de cache de um produto. Exportada para que o
// consumidor do feed de mudanças possa invalidar a mesma chave.
func CacheKey(id string) string {
	return fmt.Sprintf(productCacheKey, id)
}

// ProductRepository implementa o acesso a dados do catálogo de produtos,
// com estratégia Cache-Aside nas leituras por ID.
type ProductRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

const productColumns = `id, sku, name, unit, description, is_active, created_at, updated_at`

// Save persiste um novo Produto no banco de dados.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		INSERT INTO products (id, sku, name, unit, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		product.ID, product.SKU, product.Name, product.Unit,
		product.Description, product.IsActive, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao criar produto", err)
	}

	r.logger.Info("Produto criado com sucesso.", map[string]interface{}{"id": product.ID, "sku": product.SKU})
	return product, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := CacheKey(id)
	var product domain.Product

	// --- Cache-Aside (READ) ---
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		// Cache HIT
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			return product, nil
		}
		// Desserialização falhou: segue para o DB e o Set abaixo regrava a chave.
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (conexão perdida): degrada para o DB.
		r.logger.Warn("Falha ao ler do cache Redis.", map[string]interface{}{"key": key, "error": err.Error()})
	}

	// --- Busca no Banco de Dados (PostgreSQL) ---
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	err = r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&product.ID, &product.SKU, &product.Name, &product.Unit,
		&product.Description, &product.IsActive, &product.CreatedAt, &product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}

	// --- Cache-Aside (WRITE) ---
	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, productJSON, r.CacheTTL)
	}

	return product, nil
}

// FindAll lista produtos com filtros e paginação.
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if filter.Name != "" {
		query += fmt.Sprintf(` AND name ILIKE $%d`, argPos)
		args = append(args, "%"+filter.Name+"%")
		argPos++
	}
	if filter.SKU != "" {
		query += fmt.Sprintf(` AND sku = $%d`, argPos)
		args = append(args, filter.SKU)
		argPos++
	}
	if filter.ActiveOnly {
		query += ` AND is_active = true`
	}
	query += fmt.Sprintf(` ORDER BY name LIMIT %d OFFSET %d`, filter.Limit, offset)

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar produtos no DB.", err)
		return nil, errors.NewDBError("Falha ao listar produtos", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Unit, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao mapear produto", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar produtos", err)
	}

	return products, nil
}

// Update atualiza os campos editáveis de um produto e invalida a chave de cache.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		UPDATE products
		SET sku = $1, name = $2, unit = $3, description = $4, is_active = $5, updated_at = $6
		WHERE id = $7
		RETURNING ` + productColumns

	var updated domain.Product
	err := r.DB.QueryRowContext(ctxTimeout, query,
		product.SKU, product.Name, product.Unit, product.Description,
		product.IsActive, time.Now().UTC(), product.ID,
	).Scan(
		&updated.ID, &updated.SKU, &updated.Name, &updated.Unit,
		&updated.Description, &updated.IsActive, &updated.CreatedAt, &updated.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", product.ID))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao atualizar produto", err)
	}

	// Invalida o cache: a próxima leitura repopula com os dados novos.
	r.Cache.Delete(ctxTimeout, CacheKey(product.ID))

	return updated, nil
}

// Delete desativa um produto (soft delete: o catálogo é referenciado por
// movimentações e romaneios históricos, então a linha nunca é removida).
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE products SET is_active = false, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	if err != nil {
		r.logger.Error("Falha ao desativar produto no DB.", err)
		return errors.NewDBError("Falha ao desativar produto", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}

	r.Cache.Delete(ctxTimeout, CacheKey(id))
	return nil
}
