package catalogsource

// CostCatalogResponse is the payload of the remote cost catalog endpoint
type CostCatalogResponse struct {
	Products []CostProduct `json:"products"`
}

// CostProduct is one product with the offers of every supplier that lists it
type CostProduct struct {
	Name      string          `json:"name"`
	Packaging string          `json:"packaging,omitempty"`
	Offers    []SupplierOffer `json:"offers"`
}

// SupplierOffer is one supplier's price for a product
type SupplierOffer struct {
	Supplier  string  `json:"supplier"`
	Price     float64 `json:"price"`
	Packaging string  `json:"packaging,omitempty"`
}

// CompetitorResponse is the payload of the remote competitor proposal endpoint
type CompetitorResponse struct {
	Records []CompetitorLine `json:"records"`
}

// CompetitorLine is one competitor proposal line as the remote service returns it
type CompetitorLine struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	UnitPrice  float64 `json:"unitPrice"`
	Total      float64 `json:"total,omitempty"`
	Confidence *int    `json:"confidence,omitempty"`
}
