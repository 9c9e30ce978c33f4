package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nexcharge/apiserver/internal/logging"
	"github.com/nexcharge/apiserver/internal/services"
	"github.com/nexcharge/apiserver/internal/store"
	"github.com/nexcharge/apiserver/types"
)

// ChargerService is the subset of services.ChargerService used over HTTP.
type ChargerService interface {
	List(ctx context.Context, filter types.ChargerFilter) ([]types.Charger, error)
	Get(ctx context.Context, id int) (types.Charger, error)
	Create(ctx context.Context, actorID int, in services.ChargerInput) (types.Charger, error)
	Update(ctx context.Context, actorID, id int, in services.ChargerInput) (types.Charger, error)
	Delete(ctx context.Context, actorID, id int) error
}

// ChargerHandler provides HTTP handlers for chargers.
type ChargerHandler struct {
	chargers ChargerService
	log      logging.Logger
}

func NewChargerHandler(chargers ChargerService, log logging.Logger) *ChargerHandler {
	if log == nil {
		log = logging.Discard()
	}
	return &ChargerHandler{chargers: chargers, log: log}
}

// ChargerRouter registers charger routes. Reads are public; writes go
// through authMiddleware.
func ChargerRouter(r chi.Router, chargers ChargerService, authMiddleware func(http.Handler) http.Handler, log logging.Logger) {
	handler := NewChargerHandler(chargers, log)

	r.Get("/", handler.ListChargers)
	r.With(authMiddleware).Post("/", handler.CreateCharger)
	r.Route("/{chargerID}", func(r chi.Router) {
		r.Get("/", handler.GetCharger)
		r.With(authMiddleware).Put("/", handler.UpdateCharger)
		r.With(authMiddleware).Delete("/", handler.DeleteCharger)
	})
}

func (h *ChargerHandler) ListChargers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := types.ChargerFilter{
		Status: types.ChargerStatus(strings.TrimSpace(query.Get("status"))),
		Query:  query.Get("q"),
	}

	items, err := h.chargers.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err, "failed to list chargers")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ChargerHandler) GetCharger(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "chargerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	charger, err := h.chargers.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "failed to fetch charger")
		return
	}
	writeJSON(w, http.StatusOK, charger)
}

func (h *ChargerHandler) CreateCharger(w http.ResponseWriter, r *http.Request) {
	actorID, _ := UserIDFromContext(r.Context())

	var in services.ChargerInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	charger, err := h.chargers.Create(r.Context(), actorID, in)
	if err != nil {
		h.fail(w, r, err, "failed to create charger")
		return
	}
	writeJSON(w, http.StatusCreated, charger)
}

func (h *ChargerHandler) UpdateCharger(w http.ResponseWriter, r *http.Request) {
	actorID, _ := UserIDFromContext(r.Context())
	id, err := parseID(r, "chargerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in services.ChargerInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	charger, err := h.chargers.Update(r.Context(), actorID, id, in)
	if err != nil {
		h.fail(w, r, err, "failed to update charger")
		return
	}
	writeJSON(w, http.StatusOK, charger)
}

func (h *ChargerHandler) DeleteCharger(w http.ResponseWriter, r *http.Request) {
	actorID, _ := UserIDFromContext(r.Context())
	id, err := parseID(r, "chargerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.chargers.Delete(r.Context(), actorID, id); err != nil {
		h.fail(w, r, err, "failed to delete charger")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Charger deleted"})
}

func (h *ChargerHandler) fail(w http.ResponseWriter, r *http.Request, err error, internalMessage string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "charger not found")
	default:
		h.log.Error(r.Context(), internalMessage, "error", err)
		writeError(w, http.StatusInternalServerError, internalMessage)
	}
}
