package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sanderley-ribeiro/proload-mngt-systems-sub000/internal/domain"
)

func scansAt(times ...time.Time) []time.Time {
	return times
}

func TestManifestItem_IsComplete(t *testing.T) {
	now := time.Now().UTC()

	item := domain.ManifestItem{Quantity: decimal.NewFromInt(2)}
	assert.False(t, item.IsComplete())
	assert.Equal(t, 0, item.ScannedCount())

	item.ScanEvents = scansAt(now)
	assert.False(t, item.IsComplete())

	item.ScanEvents = scansAt(now, now.Add(time.Second))
	assert.True(t, item.IsComplete())
	assert.Equal(t, 2, item.ScannedCount())
}

func TestManifestItem_IsComplete_FractionalQuantity(t *testing.T) {
	// Quantidades decimais (ex.: 2.5 kg) completam apenas quando o número de
	// bipagens alcança ou ultrapassa a quantidade.
	item := domain.ManifestItem{Quantity: decimal.RequireFromString("2.5")}

	now := time.Now().UTC()
	item.ScanEvents = scansAt(now, now)
	assert.False(t, item.IsComplete())

	item.ScanEvents = append(item.ScanEvents, now)
	assert.True(t, item.IsComplete())
}

func TestManifestItem_LastScanAt(t *testing.T) {
	item := domain.ManifestItem{Quantity: decimal.NewFromInt(3)}
	assert.Nil(t, item.LastScanAt())

	first := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)
	item.ScanEvents = scansAt(first, second)

	assert.NotNil(t, item.LastScanAt())
	assert.True(t, item.LastScanAt().Equal(second))
}

// TestManifest_IsComplete_FlipsAtLastDeficientItem verifica que a completude
// do romaneio vira exatamente quando o último item deficiente atinge sua
// quantidade.
func TestManifest_IsComplete_FlipsAtLastDeficientItem(t *testing.T) {
	now := time.Now().UTC()
	m := domain.Manifest{
		Status: domain.ManifestOpen,
		Items: []domain.ManifestItem{
			{ID: "a", Quantity: decimal.NewFromInt(2), ScanEvents: scansAt(now, now)},
			{ID: "b", Quantity: decimal.NewFromInt(1)},
		},
	}

	assert.False(t, m.IsComplete())

	m.Items[1].ScanEvents = scansAt(now)
	assert.True(t, m.IsComplete())
}

func TestManifest_IsComplete_VacuouslyTrueWithoutItems(t *testing.T) {
	m := domain.Manifest{Status: domain.ManifestOpen}
	assert.True(t, m.IsComplete())
}

func TestManifest_TotalScanned(t *testing.T) {
	now := time.Now().UTC()
	m := domain.Manifest{
		Items: []domain.ManifestItem{
			{Quantity: decimal.NewFromInt(2), ScanEvents: scansAt(now, now)},
			{Quantity: decimal.NewFromInt(3), ScanEvents: scansAt(now)},
			{Quantity: decimal.NewFromInt(1)},
		},
	}

	assert.Equal(t, 3, m.TotalScanned())
}

func TestManifest_FindItem(t *testing.T) {
	m := domain.Manifest{
		Items: []domain.ManifestItem{
			{ID: "item-1", ProductID: "prod-1"},
			{ID: "item-2", ProductID: "prod-2"},
		},
	}

	assert.Equal(t, 0, m.FindItem("item-1"))
	assert.Equal(t, 1, m.FindItem("prod-2"))
	assert.Equal(t, -1, m.FindItem("prod-999"))
}
