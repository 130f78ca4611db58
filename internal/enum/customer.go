package enum

type CustomerPhase string

const (
	CustomerPhaseCalled         CustomerPhase = "angerufen"
	CustomerPhaseViewingPlanned CustomerPhase = "besichtigung_geplant"
	CustomerPhaseQuoteSent      CustomerPhase = "angebot_erstellt"
	CustomerPhaseExecution      CustomerPhase = "durchfuehrung"
	CustomerPhaseInvoiced       CustomerPhase = "rechnung"
	CustomerPhaseArchived       CustomerPhase = "archiviert"
)

func (p CustomerPhase) String() string {
	return string(p)
}

type SalesStatus string

const (
	SalesStatusLead      SalesStatus = "lead"
	SalesStatusContacted SalesStatus = "contacted"
	SalesStatusWon       SalesStatus = "won"
	SalesStatusLost      SalesStatus = "lost"
)

func (s SalesStatus) String() string {
	return string(s)
}

type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "draft"
	QuoteStatusSent      QuoteStatus = "sent"
	QuoteStatusConfirmed QuoteStatus = "confirmed"
	QuoteStatusRejected  QuoteStatus = "rejected"
)

func (s QuoteStatus) String() string {
	return string(s)
}
