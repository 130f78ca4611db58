package email_processor

import (
	"strings"

	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/utils"
)

// determineThreadID uses the oldest message referenced by the email as the thread root,
// falling back to the parent and then the email itself.
func determineThreadID(email *models.Email, references string) string {
	for _, ref := range strings.Fields(references) {
		if id := utils.NormalizeMessageID(ref); id != "" {
			return id
		}
	}
	if email.InReplyTo != "" {
		return email.InReplyTo
	}
	if email.MessageID != "" {
		return email.MessageID
	}
	return email.IdentityKey
}
