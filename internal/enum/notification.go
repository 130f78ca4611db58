package enum

type NotificationType string

const (
	NotificationQuoteConfirmed NotificationType = "quote_confirmed"
	NotificationNewCustomer    NotificationType = "new_customer"
	NotificationQuoteSent      NotificationType = "quote_sent"
	NotificationInvoiceCreated NotificationType = "invoice_created"
	NotificationImportSuccess  NotificationType = "import_success"
	NotificationImportError    NotificationType = "import_error"
)

func (t NotificationType) String() string {
	return string(t)
}

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationQuoteConfirmed, NotificationNewCustomer, NotificationQuoteSent,
		NotificationInvoiceCreated, NotificationImportSuccess, NotificationImportError:
		return true
	}
	return false
}

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
)

func (p NotificationPriority) String() string {
	return string(p)
}

func (p NotificationPriority) IsValid() bool {
	return p == NotificationPriorityLow || p == NotificationPriorityMedium || p == NotificationPriorityHigh
}
