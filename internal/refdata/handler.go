package refdata

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"parceltrack/internal/apperr"
	"parceltrack/internal/identity"
	"parceltrack/internal/platform/web"
)

// Handler exposes CRUD over the reference entities. Reads are open to any
// authenticated principal; writes are manager-only.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Routes mounts the reference-data endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/clients", func(r chi.Router) {
		r.Post("/", h.createClient)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			list, err := h.store.Clients(r.Context())
			h.respondList(w, list, err)
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r)
			if !ok {
				return
			}
			client, err := h.store.ClientByID(r.Context(), id)
			h.respond(w, client, err)
		})
	})

	r.Route("/recipients", func(r chi.Router) {
		r.Post("/", h.createRecipient)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			list, err := h.store.Recipients(r.Context())
			h.respondList(w, list, err)
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r)
			if !ok {
				return
			}
			recipient, err := h.store.RecipientByID(r.Context(), id)
			h.respond(w, recipient, err)
		})
	})

	r.Route("/couriers", func(r chi.Router) {
		r.Post("/", h.createCourier)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			list, err := h.store.Couriers(r.Context())
			h.respondList(w, list, err)
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r)
			if !ok {
				return
			}
			courier, err := h.store.CourierByID(r.Context(), id)
			h.respond(w, courier, err)
		})
	})

	r.Route("/zones", func(r chi.Router) {
		r.Post("/", h.createZone)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			list, err := h.store.Zones(r.Context())
			h.respondList(w, list, err)
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r)
			if !ok {
				return
			}
			zone, err := h.store.ZoneByID(r.Context(), id)
			h.respond(w, zone, err)
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.createProduct)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			list, err := h.store.Products(r.Context())
			h.respondList(w, list, err)
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r)
			if !ok {
				return
			}
			product, err := h.store.ProductByID(r.Context(), id)
			h.respond(w, product, err)
		})
	})
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var client Client
	if !h.decodeForManager(w, r, &client) {
		return
	}
	if strings.TrimSpace(client.Name) == "" {
		web.Error(w, apperr.Invalid("name is required"))
		return
	}
	client.ID = uuid.New()
	if err := h.store.CreateClient(r.Context(), &client); err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, client)
}

func (h *Handler) createRecipient(w http.ResponseWriter, r *http.Request) {
	var recipient Recipient
	if !h.decodeForManager(w, r, &recipient) {
		return
	}
	if strings.TrimSpace(recipient.Name) == "" {
		web.Error(w, apperr.Invalid("name is required"))
		return
	}
	recipient.ID = uuid.New()
	if err := h.store.CreateRecipient(r.Context(), &recipient); err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, recipient)
}

func (h *Handler) createCourier(w http.ResponseWriter, r *http.Request) {
	var courier Courier
	if !h.decodeForManager(w, r, &courier) {
		return
	}
	if strings.TrimSpace(courier.Name) == "" {
		web.Error(w, apperr.Invalid("name is required"))
		return
	}
	courier.ID = uuid.New()
	if err := h.store.CreateCourier(r.Context(), &courier); err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, courier)
}

func (h *Handler) createZone(w http.ResponseWriter, r *http.Request) {
	var zone Zone
	if !h.decodeForManager(w, r, &zone) {
		return
	}
	if strings.TrimSpace(zone.Name) == "" {
		web.Error(w, apperr.Invalid("name is required"))
		return
	}
	zone.ID = uuid.New()
	if err := h.store.CreateZone(r.Context(), &zone); err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, zone)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var product Product
	if !h.decodeForManager(w, r, &product) {
		return
	}
	if strings.TrimSpace(product.Name) == "" {
		web.Error(w, apperr.Invalid("name is required"))
		return
	}
	if product.Price <= 0 {
		web.Error(w, apperr.Invalid("price must be greater than 0"))
		return
	}
	product.ID = uuid.New()
	if err := h.store.CreateProduct(r.Context(), &product); err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, product)
}

// decodeForManager enforces the manager gate on writes and decodes the body.
func (h *Handler) decodeForManager(w http.ResponseWriter, r *http.Request, v any) bool {
	principal, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return false
	}
	if !principal.IsManager() {
		web.Error(w, apperr.Forbidden("only managers can manage reference data"))
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		web.Error(w, apperr.Invalid("invalid request body"))
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, v)
}

func (h *Handler) respondList(w http.ResponseWriter, v any, err error) {
	if err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, v)
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, apperr.Invalid("invalid id"))
		return uuid.UUID{}, false
	}
	return id, true
}
