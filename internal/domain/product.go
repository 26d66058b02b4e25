package domain

import (
	"time"
)

// Product representa o item principal do catálogo (a Entidade).
// A unidade (Unit) define se as quantidades do produto são inteiras ("un",
// "cx") ou fracionárias ("kg", "lt") nas movimentações e romaneios.
type Product struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"` // Stock Keeping Unit (código único de produto)
	Name        string    `json:"name"`
	Unit        string    `json:"unit"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductFilter define os parâmetros de busca e paginação da listagem.
type ProductFilter struct {
	Page       int
	Limit      int
	Name       string
	SKU        string
	ActiveOnly bool
}
