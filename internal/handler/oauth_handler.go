package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"annotator-readmill/internal/auth"
	"annotator-readmill/internal/domain"
	apperrors "annotator-readmill/pkg/errors"
)

// FlowCompleter completes pending authorization flows.
type FlowCompleter interface {
	Callback(id string) error
	CompleteRedirect(fragment string) error
}

// FragmentReceiver accepts the fragment a popup window was redirected with.
type FragmentReceiver interface {
	DeliverFragment(id, fragment string) error
}

// OAuthHandler receives the authorization redirect.
type OAuthHandler struct {
	flows   FlowCompleter
	windows FragmentReceiver
	logger  domain.Logger
}

func NewOAuthHandler(flows FlowCompleter, windows FragmentReceiver, logger domain.Logger) *OAuthHandler {
	return &OAuthHandler{flows: flows, windows: windows, logger: logger}
}

// callbackPage runs in the popup: it posts its fragment back and closes.
const callbackPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Connecting to Readmill</title></head>
<body>
<p>Connecting to Readmill&hellip;</p>
<script>
fetch(window.location.pathname, {
  method: "POST",
  headers: {"Content-Type": "application/json"},
  body: JSON.stringify({fragment: window.location.hash.slice(1)})
}).finally(function () { window.close(); });
</script>
</body>
</html>
`

// CallbackPage handles GET /oauth/callback
func (h *OAuthHandler) CallbackPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(callbackPage))
}

type callbackRequest struct {
	Fragment string `json:"fragment"`
}

// Callback handles POST /oauth/callback
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	fragment := strings.TrimPrefix(req.Fragment, "#")
	if fragment == "" {
		writeError(w, http.StatusBadRequest, "fragment is required")
		return
	}

	var err error
	if state := stateOf(fragment); state != "" && h.windows.DeliverFragment(state, fragment) == nil {
		err = h.flows.Callback(state)
	} else {
		err = h.flows.CompleteRedirect(fragment)
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case errors.Is(err, domain.ErrUnknownFlow):
		writeError(w, http.StatusNotFound, "No authorization in progress")
	case apperrors.IsType(err, apperrors.ErrorTypeParse):
		writeError(w, http.StatusBadRequest, "Malformed fragment")
	default:
		h.logger.Error("Failed to complete authorization", err)
		writeError(w, http.StatusInternalServerError, "Failed to complete authorization")
	}
}

func stateOf(fragment string) string {
	params, err := auth.Parse(fragment, "&")
	if err != nil {
		return ""
	}
	return params.Get("state")
}
