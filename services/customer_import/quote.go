package customer_import

import (
	"fmt"

	"github.com/lib/pq"

	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/models"
)

const (
	basePrice       = 450.0
	pricePerRoom    = 150.0
	pricePerSqm     = 8.0
	pricePerFloor   = 50.0
	volumePerRoom   = 12.0
	defaultRooms    = 3
	defaultDistance = 10.0
)

// EstimatePrice is the automatic draft price. Stairs are only charged without an elevator.
func EstimatePrice(apartment models.Apartment) float64 {
	price := basePrice
	if apartment.Rooms > 0 {
		price += float64(apartment.Rooms) * pricePerRoom
	}
	if apartment.Area > 0 {
		price += apartment.Area * pricePerSqm
	}
	if apartment.Floor > 0 && !apartment.HasElevator {
		price += float64(apartment.Floor) * pricePerFloor
	}
	return price
}

// EstimateVolume is cubic metres from the room count, assuming three rooms when unknown.
func EstimateVolume(apartment models.Apartment) float64 {
	rooms := apartment.Rooms
	if rooms <= 0 {
		rooms = defaultRooms
	}
	return float64(rooms) * volumePerRoom
}

func NewDraftQuote(customer *models.Customer, emailID, createdBy string) *models.Quote {
	distance := customer.Distance
	if distance <= 0 {
		distance = defaultDistance
	}
	rooms := customer.Apartment.Rooms
	if rooms <= 0 {
		rooms = defaultRooms
	}
	return &models.Quote{
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		FromAddress:   customer.FromAddress,
		ToAddress:     customer.ToAddress,
		MovingDate:    customer.MovingDate,
		Apartment:     customer.Apartment,
		Services:      pq.StringArray(append([]string(nil), customer.Services...)),
		Volume:        EstimateVolume(customer.Apartment),
		Distance:      distance,
		Price:         EstimatePrice(customer.Apartment),
		Status:        enum.QuoteStatusDraft,
		Comment:       fmt.Sprintf("Komplettumzug für %d Zimmer", rooms),
		CreatedBy:     createdBy,
		SourceEmailID: emailID,
	}
}
