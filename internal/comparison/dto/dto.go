package dto

type NearbyStoresQuery struct {
	Latitude  *float64 `form:"latitude" binding:"required"`
	Longitude *float64 `form:"longitude" binding:"required"`
	RadiusKm  *float64 `form:"radius_km"`
}

type UserLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	RadiusKm  *float64 `json:"radius_km"`
}

type ComparePricesRequest struct {
	UserLocation *UserLocationRequest `json:"user_location" binding:"required"`
	GroceryList  []string             `json:"grocery_list"`
}

func (q *NearbyStoresQuery) ToInput() *Location {
	return &Location{Latitude: *q.Latitude, Longitude: *q.Longitude, RadiusKm: q.RadiusKm}
}

func (r *ComparePricesRequest) ToInput() *ComparePricesInput {
	return &ComparePricesInput{
		Location: Location{
			Latitude:  *r.UserLocation.Latitude,
			Longitude: *r.UserLocation.Longitude,
			RadiusKm:  r.UserLocation.RadiusKm,
		},
		GroceryList: r.GroceryList,
	}
}
