package handler

import (
	"encoding/json"
	"net/http"

	"annotator-readmill/internal/domain"
	"annotator-readmill/internal/service"
	"annotator-readmill/pkg/future"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// AnnotationHandler turns viewer annotation events into sync events.
type AnnotationHandler struct {
	listener domain.AnnotationListener
	registry *service.AnnotationRegistry
	logger   domain.Logger
}

func NewAnnotationHandler(listener domain.AnnotationListener, registry *service.AnnotationRegistry, logger domain.Logger) *AnnotationHandler {
	return &AnnotationHandler{
		listener: listener,
		registry: registry,
		logger:   logger,
	}
}

// CreateAnnotation handles POST /annotations
func (h *AnnotationHandler) CreateAnnotation(w http.ResponseWriter, r *http.Request) {
	var a domain.Annotation
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid annotation")
		return
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if _, exists := h.registry.Get(a.ID); exists {
		writeError(w, http.StatusConflict, "Annotation already exists")
		return
	}

	annotation := &a
	h.registry.Put(annotation)
	h.respond(w, r, "create", annotation, h.listener.OnCreated(annotation), http.StatusCreated)
}

// UpdateAnnotation handles PUT /annotations/{id}
func (h *AnnotationHandler) UpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	annotation, ok := h.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Annotation not found")
		return
	}

	var edit domain.Annotation
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid annotation")
		return
	}
	annotation.ApplyEdit(&edit)

	h.respond(w, r, "update", annotation, h.listener.OnUpdated(annotation), http.StatusOK)
}

// DeleteAnnotation handles DELETE /annotations/{id}
func (h *AnnotationHandler) DeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	annotation, ok := h.registry.Delete(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Annotation not found")
		return
	}

	h.respond(w, r, "delete", annotation, h.listener.OnDeleted(annotation), http.StatusOK)
}

// ListAnnotations handles GET /annotations
func (h *AnnotationHandler) ListAnnotations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Annotations())
}

// GetAnnotation handles GET /annotations/{id}
func (h *AnnotationHandler) GetAnnotation(w http.ResponseWriter, r *http.Request) {
	annotation, ok := h.registry.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "Annotation not found")
		return
	}
	writeJSON(w, http.StatusOK, annotation)
}

// respond waits for the sync triggered by the event. The annotation reflects
// whatever remote locations were recorded.
func (h *AnnotationHandler) respond(w http.ResponseWriter, r *http.Request, op string, annotation *domain.Annotation, result *future.Future[*domain.Annotation], status int) {
	if _, err := result.Wait(r.Context()); err != nil {
		h.logger.Error("Annotation sync failed", err, "op", op, "id", annotation.ID)
		writeJSON(w, statusFor(err), map[string]interface{}{
			"error":      "Failed to " + op + " annotation in Readmill",
			"annotation": annotation,
		})
		return
	}
	writeJSON(w, status, annotation)
}
