package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/nexcharge/apiserver/internal/logging"
	"github.com/nexcharge/apiserver/types"
)

// ChargerRepository defines persistence operations for chargers.
type ChargerRepository interface {
	List(ctx context.Context, filter types.ChargerFilter) ([]types.Charger, error)
	Get(ctx context.Context, id int) (types.Charger, error)
	Create(ctx context.Context, charger types.Charger) (types.Charger, error)
	Update(ctx context.Context, update types.ChargerUpdate) (types.Charger, error)
	Delete(ctx context.Context, id int) error
}

// ChargerInput is a create or update payload as sent by the client. Pointer
// fields distinguish "absent" from a zero value.
type ChargerInput struct {
	Name          string         `json:"name"`
	Location      *LocationInput `json:"location"`
	Status        string         `json:"status"`
	ConnectorType *string        `json:"connectorType"`
	PowerOutput   *float64       `json:"powerOutput"`
}

// LocationInput is the client form of a coordinate pair.
type LocationInput struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ChargerService encapsulates charger use-cases.
type ChargerService struct {
	repo   ChargerRepository
	events EventPublisher
	log    logging.Logger
	now    func() time.Time
}

// NewChargerService builds the service. events may be nil to disable change
// events.
func NewChargerService(repo ChargerRepository, events EventPublisher, log logging.Logger) *ChargerService {
	if events == nil {
		events = nopEvents{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &ChargerService{
		repo:   repo,
		events: events,
		log:    log.With("component", "chargers"),
		now:    time.Now,
	}
}

func (s *ChargerService) List(ctx context.Context, filter types.ChargerFilter) ([]types.Charger, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("status must be Active or Inactive")
	}
	return s.repo.List(ctx, filter)
}

func (s *ChargerService) Get(ctx context.Context, id int) (types.Charger, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new charger listed by actorID.
func (s *ChargerService) Create(ctx context.Context, actorID int, in ChargerInput) (types.Charger, error) {
	name, loc, status, err := validateCore(in)
	if err != nil {
		return types.Charger{}, err
	}
	connector := ""
	if in.ConnectorType != nil {
		connector = strings.TrimSpace(*in.ConnectorType)
	}
	if connector == "" {
		return types.Charger{}, invalid("connectorType is required")
	}
	if in.PowerOutput == nil {
		return types.Charger{}, invalid("powerOutput is required")
	}
	if err := validatePower(*in.PowerOutput); err != nil {
		return types.Charger{}, err
	}

	charger := types.Charger{
		Name:          name,
		Location:      loc,
		Status:        status,
		ConnectorType: connector,
		PowerOutput:   *in.PowerOutput,
	}
	if actorID > 0 {
		charger.CreatedBy = &actorID
	}

	created, err := s.repo.Create(ctx, charger)
	if err != nil {
		return types.Charger{}, err
	}

	s.publish(ctx, types.ChargerCreated, actorID, created.ID, &created)
	return created, nil
}

// Update replaces name, location and status, and the connector type and
// power output when they are supplied.
func (s *ChargerService) Update(ctx context.Context, actorID, id int, in ChargerInput) (types.Charger, error) {
	name, loc, status, err := validateCore(in)
	if err != nil {
		return types.Charger{}, err
	}

	update := types.ChargerUpdate{
		ID:       id,
		Name:     name,
		Location: loc,
		Status:   status,
	}
	if in.ConnectorType != nil {
		connector := strings.TrimSpace(*in.ConnectorType)
		if connector == "" {
			return types.Charger{}, invalid("connectorType must not be empty")
		}
		update.ConnectorType = &connector
	}
	if in.PowerOutput != nil {
		if err := validatePower(*in.PowerOutput); err != nil {
			return types.Charger{}, err
		}
		power := *in.PowerOutput
		update.PowerOutput = &power
	}

	updated, err := s.repo.Update(ctx, update)
	if err != nil {
		return types.Charger{}, err
	}

	s.publish(ctx, types.ChargerUpdated, actorID, updated.ID, &updated)
	return updated, nil
}

func (s *ChargerService) Delete(ctx context.Context, actorID, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, types.ChargerDeleted, actorID, id, nil)
	return nil
}

// publish is best effort: the change is already committed, so a broker
// failure is logged and not returned.
func (s *ChargerService) publish(ctx context.Context, typ types.ChargerEventType, actorID, chargerID int, charger *types.Charger) {
	event := types.ChargerEvent{
		Type:       typ,
		ChargerID:  chargerID,
		ActorID:    actorID,
		OccurredAt: s.now().UTC(),
		Charger:    charger,
	}
	if err := s.events.PublishChargerEvent(ctx, event); err != nil {
		s.log.Error(ctx, "publish charger event failed",
			"event", string(typ),
			"charger_id", chargerID,
			"error", err,
		)
	}
}

func validateCore(in ChargerInput) (string, types.Location, types.ChargerStatus, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", types.Location{}, "", invalid("name is required")
	}
	if in.Location == nil || in.Location.Latitude == nil || in.Location.Longitude == nil {
		return "", types.Location{}, "", invalid("location with numeric latitude and longitude is required")
	}
	lat, lng := *in.Location.Latitude, *in.Location.Longitude
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return "", types.Location{}, "", invalid("latitude must be between -90 and 90")
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return "", types.Location{}, "", invalid("longitude must be between -180 and 180")
	}
	status := types.ChargerStatus(strings.TrimSpace(in.Status))
	if status == "" {
		return "", types.Location{}, "", invalid("status is required")
	}
	if !status.Valid() {
		return "", types.Location{}, "", invalid("status must be Active or Inactive")
	}
	return name, types.Location{Latitude: lat, Longitude: lng}, status, nil
}

func validatePower(power float64) error {
	if math.IsNaN(power) || math.IsInf(power, 0) || power < 0 {
		return invalid("powerOutput must be a non-negative number")
	}
	return nil
}
