package enum

import "strings"

type EmailFolder string

const (
	EmailFolderInbox   EmailFolder = "inbox"
	EmailFolderSent    EmailFolder = "sent"
	EmailFolderDrafts  EmailFolder = "drafts"
	EmailFolderStarred EmailFolder = "starred"
	EmailFolderArchive EmailFolder = "archive"
	EmailFolderTrash   EmailFolder = "trash"
)

var EmailFolders = []EmailFolder{
	EmailFolderInbox,
	EmailFolderSent,
	EmailFolderDrafts,
	EmailFolderStarred,
	EmailFolderArchive,
	EmailFolderTrash,
}

func (f EmailFolder) String() string {
	return string(f)
}

func (f EmailFolder) IsValid() bool {
	for _, folder := range EmailFolders {
		if folder == f {
			return true
		}
	}
	return false
}

// ToEmailFolder lower-cases a folder name; unknown names default to inbox.
func ToEmailFolder(s string) EmailFolder {
	folder := EmailFolder(strings.ToLower(strings.TrimSpace(s)))
	if folder.IsValid() {
		return folder
	}
	return EmailFolderInbox
}

type EmailDirection string

const (
	EmailInbound  EmailDirection = "inbound"
	EmailOutbound EmailDirection = "outbound"
)

func (t EmailDirection) String() string {
	return string(t)
}

type EmailSource string

const (
	EmailSourceImmobilienScout24 EmailSource = "ImmobilienScout24"
	EmailSourceUmzug365          EmailSource = "Umzug365"
	EmailSourceRelocato          EmailSource = "Relocato"
	EmailSourceOther             EmailSource = "Other"
)

func (t EmailSource) String() string {
	return string(t)
}

type EmailClassification string

const (
	EmailOK                 EmailClassification = "ok"
	EmailBounceNotification EmailClassification = "bounce"
	EmailAutoResponder      EmailClassification = "autoresponder"
)

func (c EmailClassification) String() string {
	return string(c)
}

// IsLead reports whether the email can carry a customer request. Emails stored
// before classification existed have no value and count as leads.
func (c EmailClassification) IsLead() bool {
	return c == "" || c == EmailOK
}
