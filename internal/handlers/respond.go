package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"ticket-checkout/internal/middleware"
	"ticket-checkout/internal/models"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// validationResponse is the 422 body for field errors
type validationResponse struct {
	Errors map[string][]string `json:"errors"`
}

func writeValidationErrors(w http.ResponseWriter, errs models.ValidationErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: errs})
}

func writeFieldError(w http.ResponseWriter, field, message string) {
	errs := make(models.ValidationErrors)
	errs.Add(field, message)
	writeValidationErrors(w, errs)
}

// handleRedirect handles redirects appropriately for HTMX vs regular requests
func handleRedirect(w http.ResponseWriter, r *http.Request, url string) {
	if middleware.IsHTMXRequest(r) {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// decodeBody reads a JSON body into dst, or parses a form and hands it to fromForm
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, fromForm func(form url.Values)) error {
	if isJSONRequest(r) {
		return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst)
	}

	if err := r.ParseForm(); err != nil {
		return err
	}
	fromForm(r.PostForm)
	return nil
}
