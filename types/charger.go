package types

import "time"

// ChargerStatus is the operational state of a charging station.
type ChargerStatus string

// Supported charger statuses.
const (
	ChargerActive   ChargerStatus = "Active"
	ChargerInactive ChargerStatus = "Inactive"
)

// Valid reports whether s is one of the known statuses.
func (s ChargerStatus) Valid() bool {
	return s == ChargerActive || s == ChargerInactive
}

// Charger represents an EV charging station listed in the directory.
type Charger struct {
	// ID is the unique identifier of the charger.
	ID int `json:"id" db:"id"`

	// Name is the human-readable name of the station.
	Name string `json:"name" db:"name"`

	// Location is the geographic position of the station.
	Location Location `json:"location"`

	// Status indicates whether the station is currently usable.
	Status ChargerStatus `json:"status" db:"status"`

	// ConnectorType names the plug standard offered (e.g. "Type2", "CCS").
	ConnectorType string `json:"connectorType" db:"connector_type"`

	// PowerOutput is the rated output in kilowatts.
	PowerOutput float64 `json:"powerOutput" db:"power_output"`

	// CreatedBy is the id of the user who listed the station, if known.
	CreatedBy *int `json:"createdBy" db:"created_by"`

	// CreatedAt is the timestamp at which the charger was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the charger.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Location is a WGS84 coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// ChargerFilter narrows a charger listing. Zero values match everything.
type ChargerFilter struct {
	// Status restricts results to a single status.
	Status ChargerStatus

	// Query is matched case-insensitively against name and connector type.
	Query string
}

// ChargerUpdate carries the fields written by an update. Name, Location and
// Status are always replaced; nil optional fields keep their stored value.
type ChargerUpdate struct {
	ID            int
	Name          string
	Location      Location
	Status        ChargerStatus
	ConnectorType *string
	PowerOutput   *float64
}
