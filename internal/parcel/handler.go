package parcel

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"parceltrack/internal/apperr"
	"parceltrack/internal/identity"
	"parceltrack/internal/platform/web"
)

// Handler exposes the parcel lifecycle over HTTP. Every endpoint requires
// an authenticated principal; the Scoped layer decides what that principal
// may see and do.
type Handler struct {
	svc *Scoped
}

func NewHandler(svc *Scoped) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the parcel endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/parcels", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/search", h.search)
		r.Get("/overdue", h.overdue)
		r.Get("/statistics", h.statistics)
		r.Get("/statistics/courier/{id}", h.courierStatistics)
		r.Get("/priority/{priority}", h.byPriority)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Put("/", h.update)
			r.Delete("/", h.remove)
			r.Patch("/status", h.updateStatus)
			r.Get("/history", h.history)
			r.Get("/items", h.listItems)
			r.Post("/items", h.addItem)
		})
	})

	r.Delete("/parcel-items/{id}", h.removeItem)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	criteria, err := criteriaFromQuery(r)
	if err != nil {
		web.Error(w, err)
		return
	}

	parcels, err := h.svc.List(r.Context(), principal, criteria, pageFromQuery(r))
	respondList(w, parcels, err)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		web.Error(w, apperr.Invalid("query parameter q is required"))
		return
	}

	parcels, err := h.svc.Search(r.Context(), principal, keyword, pageFromQuery(r))
	respondList(w, parcels, err)
}

func (h *Handler) byPriority(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	priority := Priority(chi.URLParam(r, "priority"))
	parcels, err := h.svc.ByPriority(r.Context(), principal, priority, pageFromQuery(r))
	respondList(w, parcels, err)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, apperr.Invalid("invalid request body"))
		return
	}

	parcel, err := h.svc.Create(r.Context(), principal, req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, parcel)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := parcelID(w, r)
	if !ok {
		return
	}

	parcel, err := h.svc.Get(r.Context(), principal, id)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, parcel)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := parcelID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, apperr.Invalid("invalid request body"))
		return
	}

	parcel, err := h.svc.Update(r.Context(), principal, id, req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, parcel)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := parcelID(w, r)
	if !ok {
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, apperr.Invalid("invalid request body"))
		return
	}

	parcel, err := h.svc.UpdateStatus(r.Context(), principal, id, req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, parcel)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := parcelID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), principal, id); err != nil {
		web.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := parcelID(w, r)
	if !ok {
		return
	}

	entries, err := h.svc.History(r.Context(), principal, id)
	respondList(w, entries, err)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := parcelID(w, r)
	if !ok {
		return
	}

	items, err := h.svc.LineItems(r.Context(), principal, id)
	respondList(w, items, err)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := parcelID(w, r)
	if !ok {
		return
	}

	var req AddLineItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, apperr.Invalid("invalid request body"))
		return
	}

	item, err := h.svc.AddLineItem(r.Context(), principal, id, req)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, item)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := parcelID(w, r)
	if !ok {
		return
	}

	if err := h.svc.RemoveLineItem(r.Context(), principal, id); err != nil {
		web.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) overdue(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	parcels, err := h.svc.Overdue(r.Context(), principal, time.Now())
	respondList(w, parcels, err)
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.Statistics(r.Context(), principal)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, stats)
}

func (h *Handler) courierStatistics(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := parcelID(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.StatisticsForCourier(r.Context(), principal, id)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, stats)
}

func requirePrincipal(w http.ResponseWriter, r *http.Request) (identity.Principal, bool) {
	principal, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return identity.Principal{}, false
	}
	return principal, true
}

func parcelID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, apperr.Invalid("invalid id"))
		return uuid.UUID{}, false
	}
	return id, true
}

// criteriaFromQuery reads the optional list filters. Unknown status or
// priority values are rejected rather than silently ignored.
func criteriaFromQuery(r *http.Request) (Criteria, error) {
	q := r.URL.Query()
	var criteria Criteria

	if raw := q.Get("status"); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			return Criteria{}, err
		}
		criteria.Status = &status
	}
	if raw := q.Get("priority"); raw != "" {
		priority, err := ParsePriority(raw)
		if err != nil {
			return Criteria{}, err
		}
		criteria.Priority = &priority
	}
	if raw := q.Get("zone_id"); raw != "" {
		zoneID, err := uuid.Parse(raw)
		if err != nil {
			return Criteria{}, apperr.Invalid("invalid zone_id")
		}
		criteria.ZoneID = &zoneID
	}
	criteria.City = q.Get("city")
	return criteria, nil
}

func pageFromQuery(r *http.Request) Page {
	q := r.URL.Query()
	var page Page
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		page.Offset = offset
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		page.Limit = limit
	}
	return page
}

// respondList writes a JSON array, never null, so clients can range over
// the body without a nil check.
func respondList[T any](w http.ResponseWriter, list []T, err error) {
	if err != nil {
		web.Error(w, err)
		return
	}
	if list == nil {
		list = []T{}
	}
	web.JSON(w, http.StatusOK, list)
}
