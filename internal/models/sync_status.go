package models

import "time"

// SyncStatus is the process-wide state of the legacy reconciliation.
// It is persisted to the local store, not the primary database.
type SyncStatus struct {
	LastSync  *time.Time `json:"lastSync"`
	IsSyncing bool       `json:"isSyncing"`
	Errors    []string   `json:"errors"`
	Synced    SyncCounts `json:"syncedCount"`
}

type SyncCounts struct {
	Customers int `json:"customers"`
	Quotes    int `json:"quotes"`
	Invoices  int `json:"invoices"`
}

// Clone returns a copy that shares no slices with the receiver.
func (s SyncStatus) Clone() SyncStatus {
	clone := s
	if s.LastSync != nil {
		lastSync := *s.LastSync
		clone.LastSync = &lastSync
	}
	clone.Errors = append([]string(nil), s.Errors...)
	return clone
}
