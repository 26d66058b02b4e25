package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ManifestStatus é um tipo string para o status do ciclo de vida do romaneio.
type ManifestStatus string

// O ciclo de vida é mínimo: o romaneio nasce aberto e sofre uma única
// transição, irreversível, para finalizado.
const (
	ManifestOpen      ManifestStatus = "open"
	ManifestFinalized ManifestStatus = "finalized"
)

// Manifest representa um romaneio de carregamento: a lista de produtos e
// quantidades que devem ser conferidos (bipados) antes da expedição.
type Manifest struct {
	ID           string         `json:"id"`
	ClientName   string         `json:"client_name"`
	DriverName   string         `json:"driver_name"`
	VehiclePlate string         `json:"vehicle_plate"`
	Status       ManifestStatus `json:"status"`
	Items        []ManifestItem `json:"items"` // Ordem de inserção = ordem de criação
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ManifestItem é uma linha do romaneio. O romaneio é dono exclusivo de seus
// itens (deletar o romaneio remove os itens em cascata). A referência ao
// produto é apenas por ID; nome e unidade são resolvidos por join na leitura.
type ManifestItem struct {
	ID         string          `json:"id"`
	ManifestID string          `json:"manifest_id"`
	ProductID  string          `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`

	// ScanEvents é o log append-only de conferência: um timestamp por unidade
	// física bipada. Invariante: len(ScanEvents) <= Quantity.
	ScanEvents []time.Time `json:"scan_events"`

	// Snapshot opcional da posição de armazenagem escolhida na criação do
	// romaneio (cópia desnormalizada, não é um vínculo vivo).
	WarehouseFloor    string `json:"warehouse_floor,omitempty"`
	WarehousePosition string `json:"warehouse_position,omitempty"`

	// Version dá suporte ao controle de concorrência otimista na escrita do
	// log de bipagens (duas conferências simultâneas não podem se sobrescrever).
	Version int `json:"version"`

	CreatedAt time.Time `json:"created_at"`

	// Resolvidos via join com o catálogo de produtos.
	ProductName string `json:"product_name"`
	ProductUnit string `json:"product_unit"`
}

// ScannedCount retorna o número de bipagens já registradas no item.
func (i ManifestItem) ScannedCount() int {
	return len(i.ScanEvents)
}

// IsComplete indica se o item atingiu a quantidade alvo.
func (i ManifestItem) IsComplete() bool {
	return decimal.NewFromInt(int64(len(i.ScanEvents))).GreaterThanOrEqual(i.Quantity)
}

// LastScanAt retorna o timestamp da última bipagem, ou nil se não houver nenhuma.
func (i ManifestItem) LastScanAt() *time.Time {
	if len(i.ScanEvents) == 0 {
		return nil
	}
	last := i.ScanEvents[len(i.ScanEvents)-1]
	return &last
}

// IsComplete indica se todos os itens do romaneio atingiram a quantidade alvo.
// Vacuamente verdadeiro para um romaneio sem itens (a criação de romaneio
// vazio deve ser evitada na camada de serviço, não aqui).
func (m Manifest) IsComplete() bool {
	for _, item := range m.Items {
		if !item.IsComplete() {
			return false
		}
	}
	return true
}

// TotalScanned soma as bipagens de todos os itens. Usado na regra de deleção:
// só é permitido deletar um romaneio aberto e ainda sem nenhuma conferência.
func (m Manifest) TotalScanned() int {
	total := 0
	for _, item := range m.Items {
		total += len(item.ScanEvents)
	}
	return total
}

// FindItem localiza um item pelo seu ID ou pelo ID do produto (o leitor de
// código de barras emite o código do produto, não o da linha do romaneio).
// Retorna o índice do item em Items, ou -1 se ausente.
func (m Manifest) FindItem(code string) int {
	for idx, item := range m.Items {
		if item.ID == code || item.ProductID == code {
			return idx
		}
	}
	return -1
}

// ManifestFilter define os parâmetros de busca e paginação da listagem.
type ManifestFilter struct {
	Page   int
	Limit  int
	Status ManifestStatus
}

// ScanRequest é o payload esperado na requisição de bipagem.
type ScanRequest struct {
	Code string `json:"code"`
}
