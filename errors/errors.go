package leadstack_errors

import "github.com/pkg/errors"

var (
	// common errors
	ErrUserIDNotSet      = errors.New("userId not set on context")
	ErrConnectionTimeout = errors.New("connection timeout")

	// email errors
	ErrEmailNotFound   = errors.New("email not found")
	ErrInvalidFolder   = errors.New("invalid email folder")
	ErrMailboxNotReady = errors.New("mailbox connection not available")

	// parse errors
	ErrNoCustomerName    = errors.New("no customer name could be extracted")
	ErrUnparseable       = errors.New("email body could not be parsed")
	ErrInvalidParsedData = errors.New("parsed customer data is invalid")

	// import errors
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrAlreadyImported      = errors.New("email already imported")
	ErrDuplicateCustomer    = errors.New("customer with same email or phone already exists")
	ErrFailedImportNotFound = errors.New("failed import not found")

	// sync errors
	ErrSyncInProgress     = errors.New("sync already in progress")
	ErrLegacySourceAbsent = errors.New("legacy data source not configured")

	// notification errors
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidNotification  = errors.New("invalid notification")
)
