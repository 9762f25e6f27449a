package domain

import (
	"encoding/json"
	"time"
)

// Tables that publish change events. TableUserRoles events only travel
// between replicas and are never offered to feed clients.
const (
	TableRequests      = "aid_requests"
	TableNotifications = "notifications"
	TableUserRoles     = "user_roles"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent describes a row-level change. Columns holds the equality
// filterable attributes of the row (e.g. user_id) so subscribers can
// narrow the stream without decoding Record.
type ChangeEvent struct {
	Table    string            `json:"table"`
	Type     ChangeType        `json:"type"`
	RecordID string            `json:"record_id"`
	Columns  map[string]string `json:"columns,omitempty"`
	Record   json.RawMessage   `json:"record,omitempty"`
	At       time.Time         `json:"at"`
}

// Matches reports whether the event belongs to table and, when column is
// set, carries value in that column.
func (e ChangeEvent) Matches(table, column, value string) bool {
	if e.Table != table {
		return false
	}
	if column == "" {
		return true
	}
	return e.Columns[column] == value
}
