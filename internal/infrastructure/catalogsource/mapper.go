package catalogsource

import (
	"strings"

	"github.com/kpcalc/backend/internal/domain"
	"github.com/kpcalc/backend/internal/usecase"
)

// MapCostCatalog collapses supplier offers to one catalog record per product at the lowest
// positive price. Products without a usable offer are dropped.
func MapCostCatalog(products []CostProduct) []domain.CatalogRecord {
	records := make([]domain.CatalogRecord, 0, len(products))
	for _, p := range products {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}

		offer, ok := cheapestOffer(p.Offers)
		if !ok {
			continue
		}

		packaging := strings.TrimSpace(p.Packaging)
		if packaging == "" {
			packaging = strings.TrimSpace(offer.Packaging)
		}

		records = append(records, domain.CatalogRecord{
			Name:      name,
			UnitCost:  offer.Price,
			Packaging: packaging,
		})
	}
	return records
}

// cheapestOffer returns the offer with the lowest positive price; ties keep the first
func cheapestOffer(offers []SupplierOffer) (SupplierOffer, bool) {
	var best SupplierOffer
	found := false
	for _, o := range offers {
		if o.Price <= 0 {
			continue
		}
		if !found || o.Price < best.Price {
			best = o
			found = true
		}
	}
	return best, found
}

// MapCompetitorRecords converts remote competitor lines. Lines without a confidence
// are scored with usecase.AssessCompetitorRecord.
func MapCompetitorRecords(lines []CompetitorLine) []domain.CompetitorRecord {
	records := make([]domain.CompetitorRecord, 0, len(lines))
	for _, l := range lines {
		name := strings.TrimSpace(l.Name)
		if name == "" {
			continue
		}

		rec := domain.CompetitorRecord{
			Name:      name,
			Quantity:  l.Quantity,
			Unit:      strings.TrimSpace(l.Unit),
			UnitPrice: l.UnitPrice,
			Total:     l.Total,
		}
		if l.Confidence != nil {
			rec.Confidence = min(max(*l.Confidence, 0), 100)
		} else {
			rec.Confidence, _ = usecase.AssessCompetitorRecord(rec)
		}
		records = append(records, rec)
	}
	return records
}
