package service

import (
	"sync"

	"annotator-readmill/internal/domain"
)

// AnnotationRegistry tracks local annotations by id so every event for an
// annotation mutates the same object. It also registers hydrated annotations
// on their way to the viewer.
type AnnotationRegistry struct {
	next domain.AnnotationSink

	mu    sync.RWMutex
	items map[string]*domain.Annotation
	order []string
}

var _ domain.AnnotationSink = (*AnnotationRegistry)(nil)

// NewAnnotationRegistry creates a registry forwarding loaded batches to next.
func NewAnnotationRegistry(next domain.AnnotationSink) *AnnotationRegistry {
	return &AnnotationRegistry{
		next:  next,
		items: make(map[string]*domain.Annotation),
	}
}

// LoadAnnotations registers the batch and forwards it unchanged.
func (r *AnnotationRegistry) LoadAnnotations(annotations []*domain.Annotation) {
	r.mu.Lock()
	for _, a := range annotations {
		if a.ID != "" {
			r.put(a)
		}
	}
	r.mu.Unlock()

	if r.next != nil {
		r.next.LoadAnnotations(annotations)
	}
}

// Put registers a, replacing any annotation with the same id.
func (r *AnnotationRegistry) Put(a *domain.Annotation) {
	r.mu.Lock()
	r.put(a)
	r.mu.Unlock()
}

func (r *AnnotationRegistry) put(a *domain.Annotation) {
	if _, ok := r.items[a.ID]; !ok {
		r.order = append(r.order, a.ID)
	}
	r.items[a.ID] = a
}

// Get returns the annotation registered under id.
func (r *AnnotationRegistry) Get(id string) (*domain.Annotation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[id]
	return a, ok
}

// Delete unregisters id and returns the annotation it held.
func (r *AnnotationRegistry) Delete(id string) (*domain.Annotation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, false
	}
	delete(r.items, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return a, true
}

// Annotations returns the registered annotations in registration order.
func (r *AnnotationRegistry) Annotations() []*domain.Annotation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Annotation, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

// Len returns the number of registered annotations.
func (r *AnnotationRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
