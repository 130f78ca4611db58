package email_parser

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/repository/inmemory"
)

const immoScoutBody = `Anfrage #123456 vom 01.03.2025
Name: Max Mustermann
Telefon: 0171 1234567
E-Mail: max@example.com
Abrechnung über: Privat

Auszug
am: 15.04.2025
Straße: Hauptstraße 1
PLZ / Ort: 10115 Berlin
Etage: 2
Zimmer: 3
Fläche: 75,5
Aufzug im Haus: Nein
Einpacken: Ja
Möbel Abbau: Ja

Einzug
Straße: Marktplatz 5
PLZ / Ort: 80331 München
Etage: Erdgeschoss
Zimmer: 3
Fläche: 80
Aufzug im Haus: Ja
Möbel Aufbau: Ja
Entfernung vom Auszugsort zum Einzugsort: 585 km

Details zur Anfrage
Immobilien Scout GmbH`

const umzug365Body = `Voraussichtlicher Umzugstag: 20.05.2025
Name: Erika Musterfrau
Telefon: 0049 30 1234567 Geprüft
E-Mail: erika@example.com
Zimmer: 4
Von:
Straße/ Nr.: Lindenweg 3
Postleitzahl: 10115
Ort: Berlin
Etage: 3
Aufzug vorhanden: Nein
Fläche (m²): 95
Nach:
Ort: 20095 Hamburg Hafenstraße 7
Etage: EG
Aufzug vorhanden: Ja
Details:
Anfrage ID: U-789
Kategorie: Privatumzug
Region: Nord
Diese Preisanfrage wurde über umzug365.de gestellt.`

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode:  true,
		LogLevel: "debug",
	})
	appLogger.InitLogger()
	return appLogger
}

func newTestParser() (*emailParser, *repository.Repositories) {
	repos := inmemory.NewRepositories(nil)
	return NewEmailParser(repos, getLogger()).(*emailParser), repos
}

func TestEmailParser_Parse_FreeTextApartment(t *testing.T) {
	// Arrange
	parser, _ := newTestParser()

	// Act
	data, err := parser.Parse("3 Zimmer, 80qm, 2. Etage, mit Aufzug", "Max Mustermann <max@example.com>")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Max Mustermann", data.Name)
	assert.Equal(t, "max@example.com", data.Email)
	assert.Equal(t, 3, data.Apartment.Rooms)
	assert.Equal(t, 80.0, data.Apartment.Area)
	assert.Equal(t, 2, data.Apartment.Floor)
	assert.True(t, data.Apartment.HasElevator)
	assert.Equal(t, enum.EmailSourceOther, data.Source)
	assert.Equal(t, []string{"Umzug"}, data.Services)
}

func TestEmailParser_Parse_NoElevator(t *testing.T) {
	parser, _ := newTestParser()

	data, err := parser.Parse("Name: Anna Schmidt\n2 Zimmer, 55 m², Dachgeschoss, ohne Aufzug", "anna@example.com")

	require.NoError(t, err)
	assert.Equal(t, "Anna Schmidt", data.Name)
	assert.Equal(t, 2, data.Apartment.Rooms)
	assert.Equal(t, 55.0, data.Apartment.Area)
	assert.False(t, data.Apartment.HasElevator)
}

func TestEmailParser_Parse_ImmobilienScout24(t *testing.T) {
	// Arrange
	parser, _ := newTestParser()

	// Act
	data, err := parser.Parse(immoScoutBody, "ImmobilienScout24 <noreply@immobilienscout24.de>")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, enum.EmailSourceImmobilienScout24, data.Source)
	assert.Equal(t, "Max Mustermann", data.Name)
	assert.Equal(t, "+491711234567", data.Phone)
	assert.Equal(t, "max@example.com", data.Email)
	assert.Equal(t, "123456", data.RequestNumber)
	require.NotNil(t, data.MovingDate)
	assert.Equal(t, time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC), *data.MovingDate)
	assert.Equal(t, "Hauptstraße 1, 10115 Berlin", data.FromAddress)
	assert.Equal(t, "Marktplatz 5, 80331 München", data.ToAddress)
	assert.Equal(t, models.Apartment{Rooms: 3, Area: 75.5, Floor: 2, HasElevator: false}, data.Apartment)
	assert.Equal(t, models.Apartment{Rooms: 3, Area: 80, Floor: 0, HasElevator: true}, data.TargetApartment)
	assert.Equal(t, []string{"Einpackservice", "Möbelmontage"}, data.Services)
	assert.Equal(t, 585.0, data.Distance)
	assert.Equal(t, "Abrechnung über: Privat", data.Notes)
}

func TestEmailParser_Parse_Umzug365(t *testing.T) {
	// Arrange
	parser, _ := newTestParser()

	// Act
	data, err := parser.Parse(umzug365Body, "anfrage@umzug365.de")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, enum.EmailSourceUmzug365, data.Source)
	assert.Equal(t, "Erika Musterfrau", data.Name)
	assert.Equal(t, "+49301234567", data.Phone)
	assert.Equal(t, "erika@example.com", data.Email)
	require.NotNil(t, data.MovingDate)
	assert.Equal(t, time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC), *data.MovingDate)
	assert.Equal(t, "Lindenweg 3, 10115 Berlin", data.FromAddress)
	assert.Equal(t, "Hafenstraße 7, 20095 Hamburg", data.ToAddress)
	assert.Equal(t, models.Apartment{Rooms: 4, Area: 95, Floor: 3, HasElevator: false}, data.Apartment)
	assert.Equal(t, 0, data.TargetApartment.Floor)
	assert.True(t, data.TargetApartment.HasElevator)
	assert.Equal(t, "U-789", data.RequestNumber)
	assert.Equal(t, "Kategorie: Privatumzug\nRegion: Nord", data.Notes)
	assert.Equal(t, []string{"Umzug"}, data.Services)
}

func TestEmailParser_Parse_HTMLBody(t *testing.T) {
	parser, _ := newTestParser()
	body := `<html><head><style>p{color:red}</style></head><body>
<p>Name: Anna Schmidt</p>
<p>Telefon: 0171 1234567</p>
<script>track()</script>
<p><a href="https://www.google.com/maps?q=berlin">Karte</a></p>
</body></html>`

	data, err := parser.Parse(body, "anna@example.com")

	require.NoError(t, err)
	assert.Equal(t, "Anna Schmidt", data.Name)
	assert.Equal(t, "+491711234567", data.Phone)
	assert.NotContains(t, data.Notes, "track()")
	assert.NotContains(t, data.Notes, "Karte")
}

func TestEmailParser_Parse_NoName(t *testing.T) {
	parser, _ := newTestParser()

	data, err := parser.Parse("Bitte rufen Sie mich wegen eines Umzugs zurück.", "info@umzugsportal.de")

	require.Error(t, err)
	assert.True(t, errors.Is(err, leadstack_errors.ErrNoCustomerName))
	require.NotNil(t, data)
	assert.Equal(t, "info@umzugsportal.de", data.Email)
}

func TestEmailParser_Parse_Unparseable(t *testing.T) {
	parser, _ := newTestParser()

	_, err := parser.Parse("\xff\xfe\xfd", "max@example.com")
	assert.True(t, errors.Is(err, leadstack_errors.ErrUnparseable))

	_, err = parser.Parse("   ", "max@example.com")
	assert.True(t, errors.Is(err, leadstack_errors.ErrUnparseable))
}

func TestEmailParser_ProcessEmail_NoNameRecordsOneFailedImport(t *testing.T) {
	// Arrange
	ctx := context.Background()
	parser, repos := newTestParser()
	email := &models.Email{
		IdentityKey: "lead-1@umzugsportal.de",
		MailboxID:   "default",
		Folder:      enum.EmailFolderInbox,
		MessageID:   "lead-1@umzugsportal.de",
		FromAddress: "info@umzugsportal.de",
		Subject:     "Neue Anfrage",
		BodyText:    "Bitte rufen Sie mich wegen eines Umzugs zurück.",
		Date:        time.Now().UTC(),
	}
	require.NoError(t, repos.EmailRepository.Create(ctx, email))

	// Act
	first, firstErr := parser.ProcessEmail(ctx, email.ID)
	second, secondErr := parser.ProcessEmail(ctx, email.ID)

	// Assert
	assert.Nil(t, first)
	assert.Nil(t, second)
	assert.True(t, errors.Is(firstErr, leadstack_errors.ErrNoCustomerName))
	assert.True(t, errors.Is(secondErr, leadstack_errors.ErrNoCustomerName))

	failedImports := repos.FailedImportRepository.(*inmemory.FailedImportRepository)
	assert.Equal(t, 1, failedImports.Count())
	failed, err := repos.FailedImportRepository.GetUnresolvedByEmailID(ctx, email.ID)
	require.NoError(t, err)
	require.NotNil(t, failed)
	assert.Equal(t, enum.FailureReasonNoCustomerName, failed.Reason)
	assert.Equal(t, "info@umzugsportal.de", failed.FromAddress)
	assert.Equal(t, "info@umzugsportal.de", failed.ExtractedData["email"])

	customers := repos.CustomerRepository.(*inmemory.CustomerRepository)
	assert.Empty(t, customers.Snapshot())
}

func TestEmailParser_ProcessEmail_ParseErrorReason(t *testing.T) {
	ctx := context.Background()
	parser, repos := newTestParser()
	email := &models.Email{
		IdentityKey: "default:inbox:7",
		MailboxID:   "default",
		Folder:      enum.EmailFolderInbox,
		ImapUID:     7,
		FromAddress: "max@example.com",
	}
	require.NoError(t, repos.EmailRepository.Create(ctx, email))

	_, err := parser.ProcessEmail(ctx, email.ID)

	assert.True(t, errors.Is(err, leadstack_errors.ErrUnparseable))
	failed, getErr := repos.FailedImportRepository.GetUnresolvedByEmailID(ctx, email.ID)
	require.NoError(t, getErr)
	require.NotNil(t, failed)
	assert.Equal(t, enum.FailureReasonParseError, failed.Reason)
}

func TestEmailParser_ProcessEmail_Success(t *testing.T) {
	ctx := context.Background()
	parser, repos := newTestParser()
	email := &models.Email{
		IdentityKey: "lead-2@example.com",
		MailboxID:   "default",
		Folder:      enum.EmailFolderInbox,
		FromAddress: "max@example.com",
		FromName:    "Max Mustermann",
		Subject:     "Umzugsanfrage",
		BodyText:    "3 Zimmer, 80qm, 2. Etage, mit Aufzug",
	}
	require.NoError(t, repos.EmailRepository.Create(ctx, email))

	data, err := parser.ProcessEmail(ctx, email.ID)

	require.NoError(t, err)
	assert.Equal(t, "Max Mustermann", data.Name)
	assert.Equal(t, 0, repos.FailedImportRepository.(*inmemory.FailedImportRepository).Count())
}

func TestEmailParser_ProcessEmail_MissingEmail(t *testing.T) {
	parser, _ := newTestParser()

	_, err := parser.ProcessEmail(context.Background(), "email_missing")

	assert.Equal(t, leadstack_errors.ErrEmailNotFound, err)
}
