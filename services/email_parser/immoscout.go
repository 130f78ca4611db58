package email_parser

import (
	"regexp"
	"strings"

	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/utils"
)

var (
	isRequestRegex  = regexp.MustCompile(`Anfrage #(\d+)\s+vom\s+(\d{2}\.\d{2}\.\d{4})`)
	isNameRegex     = regexp.MustCompile(`(?m)\bName:\s*(.+?)\s*$`)
	isPhoneRegex    = regexp.MustCompile(`(?m)Telefon:\s*(.+?)\s*$`)
	isEmailRegex    = regexp.MustCompile(`E-Mail:\s*([\w.\-+]+@[\w.\-]+\w)`)
	isBillingRegex  = regexp.MustCompile(`(?m)Abrechnung über:\s*(.+?)\s*$`)
	isMoveOutRegex  = regexp.MustCompile(`(?s)(Auszug.*?)(?:Einzug|Details zur Anfrage|Bei Fragen)`)
	isMoveInRegex   = regexp.MustCompile(`(?s)(Einzug.*?)(?:Details zur Anfrage|Bei Fragen|Immobilien Scout GmbH|$)`)
	isDateRegex     = regexp.MustCompile(`am:\s*(\d{2}\.\d{2}\.\d{4})`)
	isStreetRegex   = regexp.MustCompile(`(?m)Straße:\s*(.+?)\s*$`)
	isCityRegex     = regexp.MustCompile(`(?m)PLZ / Ort:\s*(.+?)\s*$`)
	isFloorRegex    = regexp.MustCompile(`(?m)Etage:\s*(.+?)\s*$`)
	isRoomsRegex    = regexp.MustCompile(`(?m)Zimmer:\s*(.+?)\s*$`)
	isAreaRegex     = regexp.MustCompile(`(?m)Fläche:\s*(.+?)\s*$`)
	isElevatorRegex = regexp.MustCompile(`Aufzug im Haus:\s*(Ja|Nein)`)
	isDistanceRegex = regexp.MustCompile(`Entfernung vom Auszugsort zum Einzugsort:\s*([\d.,]+)\s*km`)
)

type yesService struct {
	pattern *regexp.Regexp
	service string
}

var (
	moveOutServices = []yesService{
		{regexp.MustCompile(`Einpacken:\s*Ja`), "Einpackservice"},
		{regexp.MustCompile(`Möbel Abbau:\s*Ja`), "Möbelmontage"},
		{regexp.MustCompile(`Küche Abbau:\s*Ja`), "Küchenmontage"},
		{regexp.MustCompile(`Halteverbot beantragen:\s*Ja`), "Halteverbot"},
		{regexp.MustCompile(`Keller/ ?Dachboden:\s*Ja`), "Keller/Dachboden"},
	}
	moveInServices = []yesService{
		{regexp.MustCompile(`Auspacken:\s*Ja`), "Auspackservice"},
		{regexp.MustCompile(`Möbel Aufbau:\s*Ja`), "Möbelmontage"},
		{regexp.MustCompile(`Küche Aufbau:\s*Ja`), "Küchenmontage"},
		{regexp.MustCompile(`Möbel einlagern:\s*Ja`), "Einlagerung"},
	}
)

func parseImmobilienScout24(content string) *dto.ParsedCustomerData {
	data := &dto.ParsedCustomerData{
		Source: enum.EmailSourceImmobilienScout24,
		Name:   field(isNameRegex, content),
		Phone:  NormalizePhone(field(isPhoneRegex, content)),
		Email:  field(isEmailRegex, content),
	}
	if match := isRequestRegex.FindStringSubmatch(content); match != nil {
		data.RequestNumber = match[1]
	}

	var services []string
	if block := field(isMoveOutRegex, content); block != "" {
		data.MovingDate = ParseGermanDate(field(isDateRegex, block))
		data.FromAddress = joinAddress(field(isStreetRegex, block), field(isCityRegex, block))
		data.Apartment = models.Apartment{
			Floor:       ParseFloor(field(isFloorRegex, block)),
			Rooms:       int(parseNumber(field(isRoomsRegex, block))),
			Area:        parseNumber(field(isAreaRegex, block)),
			HasElevator: field(isElevatorRegex, block) == "Ja",
		}
		for _, s := range moveOutServices {
			if s.pattern.MatchString(block) {
				services = utils.AppendUnique(services, s.service)
			}
		}
	}

	if block := field(isMoveInRegex, content); block != "" {
		data.ToAddress = joinAddress(field(isStreetRegex, block), field(isCityRegex, block))
		data.TargetApartment = models.Apartment{
			Floor:       ParseFloor(field(isFloorRegex, block)),
			Rooms:       int(parseNumber(field(isRoomsRegex, block))),
			Area:        parseNumber(field(isAreaRegex, block)),
			HasElevator: field(isElevatorRegex, block) == "Ja",
		}
		for _, s := range moveInServices {
			if s.pattern.MatchString(block) {
				services = utils.AppendUnique(services, s.service)
			}
		}
	}
	data.Services = services

	data.Distance = parseNumber(field(isDistanceRegex, content))
	if billing := field(isBillingRegex, content); billing != "" {
		data.Notes = "Abrechnung über: " + billing
	}
	return data
}

func joinAddress(street, city string) string {
	street = RemoveGoogleLinks(street)
	city = RemoveGoogleLinks(city)
	switch {
	case street != "" && city != "":
		return street + ", " + city
	case street != "":
		return street
	default:
		return strings.TrimSpace(city)
	}
}
