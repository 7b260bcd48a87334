package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// DefaultAllowedOrigins are the local viewer dev servers.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:4173",
	"http://localhost:3000",
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	annotationHandler *AnnotationHandler,
	sessionHandler *SessionHandler,
	oauthHandler *OAuthHandler,
	ws http.HandlerFunc,
	allowedOrigins []string,
	middlewares ...mux.MiddlewareFunc,
) http.Handler {
	router := mux.NewRouter()
	for _, m := range middlewares {
		router.Use(m)
	}

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "annotator-readmill"})
	}).Methods(http.MethodGet)

	router.HandleFunc("/ws", ws).Methods(http.MethodGet)
	router.HandleFunc("/oauth/callback", oauthHandler.CallbackPage).Methods(http.MethodGet)
	router.HandleFunc("/oauth/callback", oauthHandler.Callback).Methods(http.MethodPost)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Annotation events
	api.HandleFunc("/annotations", annotationHandler.ListAnnotations).Methods(http.MethodGet)
	api.HandleFunc("/annotations", annotationHandler.CreateAnnotation).Methods(http.MethodPost)
	api.HandleFunc("/annotations/{id}", annotationHandler.GetAnnotation).Methods(http.MethodGet)
	api.HandleFunc("/annotations/{id}", annotationHandler.UpdateAnnotation).Methods(http.MethodPut)
	api.HandleFunc("/annotations/{id}", annotationHandler.DeleteAnnotation).Methods(http.MethodDelete)

	// Session
	api.HandleFunc("/session", sessionHandler.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/session", sessionHandler.Disconnect).Methods(http.MethodDelete)
	api.HandleFunc("/session/connect", sessionHandler.Connect).Methods(http.MethodPost)

	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
