package email_filter

import (
	"strings"

	"github.com/customeros/mailsherpa/mailvalidate"

	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/models"
)

type emailFilterService struct{}

func NewEmailFilterService() interfaces.EmailFilterService {
	return &emailFilterService{}
}

// ScanEmail sets the classification of an inbound email. Portal form mails are always
// leads; bulk and role account checks are skipped because portals send from noreply
// addresses.
func (s *emailFilterService) ScanEmail(email *models.Email) {
	email.Classification = enum.EmailOK
	email.ClassificationReason = ""

	if email.Direction != enum.EmailInbound {
		return
	}
	if email.Source != "" && email.Source != enum.EmailSourceOther {
		return
	}

	headers := newHeaderView(email.RawHeaders)

	if ok, reason := s.isBounceNotification(headers, email.Subject, email.FromAddress); ok {
		email.Classification = enum.EmailBounceNotification
		email.ClassificationReason = reason
		return
	}

	if ok, reason := s.isAutoresponder(headers, email.Subject); ok {
		email.Classification = enum.EmailAutoResponder
		email.ClassificationReason = reason
	}
}

func (s *emailFilterService) isAutoresponder(headers headerView, subject string) (bool, string) {
	switch {
	case headers.get("X-Autoreply") != "":
		return true, "X-AUTOREPLY header present"
	case headers.get("X-Autorespond") != "" || headers.get("X-Autoresponse") != "":
		return true, "X-AUTORESPONSE header present"
	case headers.has("X-Loop"):
		return true, "X-LOOP header present"
	case strings.EqualFold(headers.get("Auto-Submitted"), "auto-replied"):
		return true, "AUTO-SUBMITTED: AUTO-REPLIED header present"
	case strings.EqualFold(headers.get("Precedence"), "auto_reply"):
		return true, "PRECEDENCE: AUTO_REPLY header present"
	case containsAny(subject, autoReplySubjects):
		return true, "SUBJECT contains auto reply keywords"
	default:
		return false, ""
	}
}

func (s *emailFilterService) isBounceNotification(headers headerView, subject, from string) (bool, string) {
	switch {
	case headers.has("X-Failed-Recipients"):
		return true, "X-FAILED-RECIPIENTS header present"
	case strings.EqualFold(headers.get("Content-Description"), "delivery report"):
		return true, "CONTENT-DESCRIPTION: DELIVERY REPORT header present"
	case hasBounceKeywords(headers.get("Return-Path")):
		return true, "RETURN-PATH contains bounce keywords"
	case hasBounceKeywords(from):
		return true, "FROM contains bounce keywords"
	case containsAny(subject, bounceSubjects):
		return true, "SUBJECT contains bounce keywords"
	default:
		return false, ""
	}
}

var bounceSubjects = []string{
	"mail delivery failure",
	"undelivered mail returned to sender",
	"delivery status notification",
	"undeliverable",
	"undelivered",
	"delivery failure",
	"failure notice",
	"returned mail",
	"returned to sender",
	"unzustellbar",
	"nicht zustellbar",
	"zustellung fehlgeschlagen",
}

var autoReplySubjects = []string{
	"automatic reply",
	"auto reply",
	"autoreply",
	"out of office",
	"abwesenheitsnotiz",
	"automatische antwort",
}

func hasBounceKeywords(str string) bool {
	str = strings.ToLower(str)
	if strings.Contains(str, "mailer-daemon") {
		return true
	}
	validation := mailvalidate.ValidateEmailSyntax(str)
	return validation.IsValid && validation.User == "postmaster"
}

func containsAny(subject string, phrases []string) bool {
	subject = strings.ToLower(subject)
	for _, phrase := range phrases {
		if strings.Contains(subject, phrase) {
			return true
		}
	}
	return false
}

// headerView reads raw headers stored as a JSON map. Values are []string when freshly
// parsed and []interface{} after a database round trip.
type headerView map[string]interface{}

func newHeaderView(raw models.JSONMap) headerView {
	view := make(headerView, len(raw))
	for key, value := range raw {
		view[strings.ToLower(key)] = value
	}
	return view
}

func (h headerView) has(key string) bool {
	_, ok := h[strings.ToLower(key)]
	return ok
}

func (h headerView) get(key string) string {
	switch v := h[strings.ToLower(key)].(type) {
	case string:
		return strings.TrimSpace(v)
	case []string:
		if len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
	case []interface{}:
		if len(v) > 0 {
			if str, ok := v[0].(string); ok {
				return strings.TrimSpace(str)
			}
		}
	}
	return ""
}
