package catalogsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpcalc/backend/internal/domain"
)

func TestMapCostCatalog(t *testing.T) {
	tests := []struct {
		name     string
		products []CostProduct
		want     []domain.CatalogRecord
	}{
		{
			name: "cheapest offer wins",
			products: []CostProduct{{
				Name: "Сметана 20% 400г",
				Offers: []SupplierOffer{
					{Supplier: "A", Price: 95},
					{Supplier: "B", Price: 88.5},
					{Supplier: "C", Price: 91},
				},
			}},
			want: []domain.CatalogRecord{{Name: "Сметана 20% 400г", UnitCost: 88.5}},
		},
		{
			name: "offer packaging used when product has none",
			products: []CostProduct{{
				Name:   "Сахар-песок",
				Offers: []SupplierOffer{{Supplier: "A", Price: 50.5, Packaging: "800г"}},
			}},
			want: []domain.CatalogRecord{{Name: "Сахар-песок", UnitCost: 50.5, Packaging: "800г"}},
		},
		{
			name: "product packaging wins over offer packaging",
			products: []CostProduct{{
				Name:      "Молоко",
				Packaging: "1л",
				Offers:    []SupplierOffer{{Supplier: "A", Price: 66, Packaging: "0.9л"}},
			}},
			want: []domain.CatalogRecord{{Name: "Молоко", UnitCost: 66, Packaging: "1л"}},
		},
		{
			name: "products without usable offers are dropped",
			products: []CostProduct{
				{Name: "Гречка", Offers: []SupplierOffer{{Supplier: "A", Price: 0}, {Supplier: "B", Price: -1}}},
				{Name: "Рис"},
				{Name: "  ", Offers: []SupplierOffer{{Supplier: "A", Price: 10}}},
			},
			want: []domain.CatalogRecord{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapCostCatalog(tt.products))
		})
	}
}

func TestMapCompetitorRecords(t *testing.T) {
	confidence := 150

	records := MapCompetitorRecords([]CompetitorLine{
		{Name: " Молоко 3.2% 1л ", Quantity: 10, Unit: " л ", UnitPrice: 80, Total: 800, Confidence: &confidence},
		{Name: "Творог 9% 400г", Quantity: 10, UnitPrice: 50, Total: 1000},
		{Name: ""},
	})

	require.Len(t, records, 2)
	assert.Equal(t, "Молоко 3.2% 1л", records[0].Name)
	assert.Equal(t, "л", records[0].Unit)
	assert.Equal(t, 100, records[0].Confidence)

	// total is double quantity x price
	assert.Equal(t, 60, records[1].Confidence)
}
