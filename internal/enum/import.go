package enum

type FailureReason string

const (
	FailureReasonNoCustomerName FailureReason = "no_customer_name"
	FailureReasonParseError     FailureReason = "parse_error"
	FailureReasonOther          FailureReason = "other"
)

func (r FailureReason) String() string {
	return string(r)
}

type ImportSource string

const (
	ImportSourceEmail     ImportSource = "E-Mail Import"
	ImportSourceAutomatic ImportSource = "automatic_import"
	ImportSourceRetry     ImportSource = "retry_import"
	ImportSourceLegacy    ImportSource = "legacy_sync"
	ImportSourceManual    ImportSource = "manual"
)

func (s ImportSource) String() string {
	return string(s)
}
