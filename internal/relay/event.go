package relay

import "encoding/json"

// Entity names a change-fed table.
type Entity string

const (
	EntityAppointments Entity = "appointments"
	EntityPayments     Entity = "payments"
	EntityProfiles     Entity = "profiles"
)

type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Event is one committed mutation as reported by the store's change feed.
// Before is absent on insert, After is absent on delete. Rows keep the store
// schema's column names.
type Event struct {
	Entity Entity          `json:"entity"`
	Kind   Kind            `json:"kind"`
	Before json.RawMessage `json:"before,omitempty"`
	After  json.RawMessage `json:"after,omitempty"`
}
