package models

// Property is a validated real-estate ad extracted from a detail page.
// Boolean and numeric fields default to false/0 when the source page omits
// them; absence is a data-quality signal, not an error. A Property is
// constructed once per successfully extracted page and never mutated.
type Property struct {
	ID                  string
	Price               Money
	Title               string
	Description         string
	Address             string
	SquareMeters        int
	Rooms               int
	Bathrooms           int
	HasGarage           bool
	HasGarden           bool
	HasPool             bool
	HasTerrace          bool
	IsNewDevelopment    bool
	NeedsRenovation     bool
	IsInGoodCondition   bool
	AgencyName          string
	Location            string
	IsIllegallyOccupied bool
	URL                 string
	LocationID          string
}

// PricePerSquareMeter returns the price divided by the constructed area,
// or 0 when the area is unknown.
func (p *Property) PricePerSquareMeter() float64 {
	if p.SquareMeters == 0 {
		return 0
	}
	return p.Price.Amount() / float64(p.SquareMeters)
}
