package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position representa uma posição física de armazenagem (andar + código do
// endereço). A ocupação é mantida pelas movimentações de estoque.
type Position struct {
	ID        string          `json:"id"`
	Floor     string          `json:"floor"`
	Code      string          `json:"code"`
	Capacity  decimal.Decimal `json:"capacity"`
	Occupied  decimal.Decimal `json:"occupied"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Available retorna o espaço livre da posição.
func (p Position) Available() decimal.Decimal {
	return p.Capacity.Sub(p.Occupied)
}
