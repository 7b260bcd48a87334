package view

import (
	"sync"

	"annotator-readmill/internal/domain"
)

// hubWindow is a popup opened on a viewer page.
type hubWindow struct {
	id  string
	hub *Hub

	mu       sync.Mutex
	fragment string
}

func (w *hubWindow) setFragment(fragment string) {
	w.mu.Lock()
	w.fragment = fragment
	w.mu.Unlock()
}

// Fragment returns the redirect fragment once the page delivered it.
func (w *hubWindow) Fragment() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fragment == "" {
		return "", domain.ErrNoFragment
	}
	return w.fragment, nil
}

// Close asks the page to close the popup.
func (w *hubWindow) Close() error {
	w.hub.closeWindow(w.id)
	return nil
}
