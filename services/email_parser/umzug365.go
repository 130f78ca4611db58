package email_parser

import (
	"regexp"
	"strings"

	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/models"
)

var (
	u365DateRegex     = regexp.MustCompile(`(?m)Voraussichtlicher Umzugstag:\s*(.+?)\s*$`)
	u365RoomsRegex    = regexp.MustCompile(`Zimmer:\s*(\d+)`)
	u365NameRegex     = regexp.MustCompile(`(?m)\bName:\s*(.+?)\s*$`)
	u365PhoneRegex    = regexp.MustCompile(`Telefon:\s*([\d\s+\-()/]+)`)
	u365EmailRegex    = regexp.MustCompile(`E-Mail:\s*([\w.\-+]+@[\w.\-]+\w)`)
	u365FromRegex     = regexp.MustCompile(`(?s)Von:(.*?)(?:Nach:|$)`)
	u365ToRegex       = regexp.MustCompile(`(?s)Nach:(.*?)(?:Details:|$)`)
	u365DetailsRegex  = regexp.MustCompile(`(?s)Details:(.*?)(?:Diese Preisanfrage|$)`)
	u365StreetRegex   = regexp.MustCompile(`(?m)Straße/\s*Nr\.:\s*(.+?)\s*$`)
	u365ZipRegex      = regexp.MustCompile(`Postleitzahl:\s*(\d{5})`)
	u365CityRegex     = regexp.MustCompile(`(?m)^\s*Ort:\s*(.+?)\s*$`)
	u365FloorRegex    = regexp.MustCompile(`(?m)Etage:\s*(.+?)\s*$`)
	u365ElevatorRegex = regexp.MustCompile(`Aufzug vorhanden:\s*(Ja|Nein)`)
	u365AreaRegex     = regexp.MustCompile(`Fläche\s*\(m²\):\s*(\d+)`)
	u365CategoryRegex = regexp.MustCompile(`(?m)Kategorie:\s*(.+?)\s*$`)
	u365RequestRegex  = regexp.MustCompile(`(?m)Anfrage ID:\s*(.+?)\s*$`)
	u365RegionRegex   = regexp.MustCompile(`(?m)Region:\s*(.+?)\s*$`)
	u365DistanceRegex = regexp.MustCompile(`(?i)Entfernung[^:\n]*:\s*([\d.,]+)\s*km`)

	zipCityStreetRegex = regexp.MustCompile(`^(\d{5})\s+([^\d]+?)\s+(.+)$`)
	streetZipCityRegex = regexp.MustCompile(`^(.+?),\s*(\d{5})\s+(.+)$`)
	trailingZipRegex   = regexp.MustCompile(`, (\d{5}) ([^,]+)$`)
)

func parseUmzug365(content string) *dto.ParsedCustomerData {
	data := &dto.ParsedCustomerData{
		Source:     enum.EmailSourceUmzug365,
		Name:       field(u365NameRegex, content),
		Email:      field(u365EmailRegex, content),
		MovingDate: ParseGermanDate(field(u365DateRegex, content)),
		Services:   []string{dto.DefaultService},
	}
	if phone := field(u365PhoneRegex, content); phone != "" {
		data.Phone = NormalizePhone(strings.ReplaceAll(phone, "Geprüft", ""))
	}
	rooms := int(parseNumber(field(u365RoomsRegex, content)))

	if block := field(u365FromRegex, content); block != "" {
		data.FromAddress = umzug365Address(block)
		data.Apartment = models.Apartment{
			Floor:       ParseFloor(field(u365FloorRegex, block)),
			Rooms:       rooms,
			Area:        parseNumber(field(u365AreaRegex, block)),
			HasElevator: field(u365ElevatorRegex, block) == "Ja",
		}
	}

	if block := field(u365ToRegex, content); block != "" {
		if field(u365StreetRegex, block) != "" {
			data.ToAddress = umzug365Address(block)
		} else if city := RemoveGoogleLinks(field(u365CityRegex, block)); city != "" {
			data.ToAddress = combinedCityAddress(city, data.FromAddress)
		}
		data.TargetApartment = models.Apartment{
			Floor:       ParseFloor(field(u365FloorRegex, block)),
			Area:        parseNumber(field(u365AreaRegex, block)),
			HasElevator: field(u365ElevatorRegex, block) == "Ja",
		}
	}

	if block := field(u365DetailsRegex, content); block != "" {
		data.RequestNumber = field(u365RequestRegex, block)
		if category := field(u365CategoryRegex, block); category != "" {
			data.Notes = "Kategorie: " + category + "\nRegion: " + field(u365RegionRegex, block)
		}
	}

	data.Distance = parseNumber(field(u365DistanceRegex, content))
	return data
}

func umzug365Address(block string) string {
	street := RemoveGoogleLinks(field(u365StreetRegex, block))
	if street == "" {
		return ""
	}
	zip := field(u365ZipRegex, block)
	city := RemoveGoogleLinks(field(u365CityRegex, block))
	if zip != "" && city != "" {
		return street + ", " + zip + " " + city
	}
	return street
}

// combinedCityAddress handles the single Ort field some requests use for the target:
// "PLZ Ort Straße", "Straße, PLZ Ort" or a bare street inheriting the origin's city.
func combinedCityAddress(city, fromAddress string) string {
	if m := zipCityStreetRegex.FindStringSubmatch(city); m != nil {
		return m[3] + ", " + m[1] + " " + m[2]
	}
	if streetZipCityRegex.MatchString(city) {
		return city
	}
	if !strings.Contains(city, ",") && fromAddress != "" {
		if m := trailingZipRegex.FindStringSubmatch(fromAddress); m != nil {
			return city + ", " + m[1] + " " + m[2]
		}
	}
	return city
}
