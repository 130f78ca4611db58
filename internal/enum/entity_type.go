package enum

type EntityType string

const (
	EMAIL         EntityType = "EMAIL"
	CUSTOMER      EntityType = "CUSTOMER"
	QUOTE         EntityType = "QUOTE"
	INVOICE       EntityType = "INVOICE"
	NOTIFICATION  EntityType = "NOTIFICATION"
	SHARE_TOKEN   EntityType = "SHARE_TOKEN"
	FAILED_IMPORT EntityType = "FAILED_IMPORT"
)

func (entityType EntityType) String() string {
	return string(entityType)
}

func GetEntityType(s string) EntityType {
	return EntityType(s)
}
