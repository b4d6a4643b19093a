package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/statusboard/statusboard/internal/api/models"
	"github.com/statusboard/statusboard/internal/api/response"
	"github.com/statusboard/statusboard/internal/catalog"
)

// ComponentsHandler handles the component catalog endpoints.
type ComponentsHandler struct {
	service *catalog.Service
	logger  zerolog.Logger
}

// NewComponentsHandler creates a new ComponentsHandler.
func NewComponentsHandler(service *catalog.Service, logger zerolog.Logger) *ComponentsHandler {
	return &ComponentsHandler{service: service, logger: logger}
}

// ListComponents handles GET /v1/components?type=GPU.
func (h *ComponentsHandler) ListComponents(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// GetComponent handles GET /v1/components/{componentId}.
func (h *ComponentsHandler) GetComponent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "componentId")
	if !ok {
		return
	}

	result, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// CreateComponent handles POST /v1/admin/components.
func (h *ComponentsHandler) CreateComponent(w http.ResponseWriter, r *http.Request) {
	var req models.ComponentWriteRequest
	if !response.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, r, "/v1/components/"+strconv.FormatInt(result.ID, 10), result)
}

// UpdateComponent handles PUT /v1/admin/components/{componentId}.
func (h *ComponentsHandler) UpdateComponent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "componentId")
	if !ok {
		return
	}

	var req models.ComponentWriteRequest
	if !response.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// DeleteComponent handles DELETE /v1/admin/components/{componentId}.
func (h *ComponentsHandler) DeleteComponent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "componentId")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func (h *ComponentsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *catalog.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(w, r, "invalid component", validationErr.Errors)
	case errors.Is(err, catalog.ErrComponentNotFound):
		response.NotFound(w, r, "component not found")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("catalog operation failed")
		response.InternalError(w, r, "catalog operation failed")
	}
}
