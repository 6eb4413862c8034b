package dto

// Location is a query point. A nil RadiusKm means the configured default.
type Location struct {
	Latitude  float64
	Longitude float64
	RadiusKm  *float64
}

type ComparePricesInput struct {
	Location    Location
	GroceryList []string
}
