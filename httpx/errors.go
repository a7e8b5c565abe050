package httpx

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/survey-intake/log"
)

// ErrorResponse is the JSON body of every non-2xx answer.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail any    `json:"detail"`
}

// JSON writes body with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

// Will log an error, and send an HTTP response with status 500 and the given body
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error, body ErrorResponse) {
	log.Errorf("%s: %s", code, err)
	JSON(w, r, http.StatusInternalServerError, body)
}

// Will log an error code at the given level, and send
// an HTTP response with status and the given body
func LogStatusJSON(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, body ErrorResponse) {
	log.Log(level, code)
	JSON(w, r, status, body)
}
