package enum

type ShareTokenStatus string

const (
	ShareTokenActive  ShareTokenStatus = "active"
	ShareTokenExpired ShareTokenStatus = "expired"
	ShareTokenRevoked ShareTokenStatus = "revoked"
)

func (s ShareTokenStatus) String() string {
	return string(s)
}
