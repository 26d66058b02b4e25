package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType é um tipo string para o sentido da movimentação de estoque.
type MovementType string

const (
	MovementInput  MovementType = "input"  // Entrada de produto no armazém
	MovementOutput MovementType = "output" // Saída de produto do armazém
)

// Movement representa uma movimentação de estoque (entrada ou saída) de um
// produto em uma posição do armazém. Registros são imutáveis após criados:
// correções são feitas por movimentações compensatórias, nunca por edição.
type Movement struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Type      MovementType    `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Floor     string          `json:"floor"`
	Position  string          `json:"position"`
	Note      string          `json:"note,omitempty"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`

	// Resolvidos via join com o catálogo de produtos.
	ProductName string `json:"product_name"`
	ProductUnit string `json:"product_unit"`
}

// MovementFilter define os parâmetros de busca e paginação da listagem.
type MovementFilter struct {
	Page      int
	Limit     int
	ProductID string
	Type      MovementType
}
