package routes

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"

	"github.com/mbolis/survey-intake/app"
	"github.com/mbolis/survey-intake/httpx"
	"github.com/mbolis/survey-intake/log"
	"github.com/mbolis/survey-intake/survey"
)

var (
	errInvalidJSON = httpx.ErrorResponse{Error: "invalid_json", Detail: "Body must be application/json"}
	errStorage     = httpx.ErrorResponse{Error: "storage_error", Detail: "Could not store submission"}
)

type PingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	UTCTime string `json:"utc_time"`
}

type SubmitResponse struct {
	Status       string `json:"status"`
	SubmissionID string `json:"submission_id"`
}

func Ping(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, PingResponse{
			Status:  "ok",
			Message: "API is alive",
			UTCTime: app.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

func SubmitSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isJSON(r.Header.Get("Content-Type")) {
			httpx.LogStatusJSON(w, r, http.StatusBadRequest, log.DebugLevel, "request.content_type", errInvalidJSON)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, app.MaxBodyBytes))
		if err != nil {
			httpx.LogStatusJSON(w, r, http.StatusBadRequest, log.DebugLevel, "request.read_body", errInvalidJSON)
			return
		}

		submission, err := survey.Parse(body)
		var verr *survey.ValidationError
		switch {
		case errors.As(err, &verr):
			httpx.LogStatusJSON(w, r, http.StatusUnprocessableEntity, log.DebugLevel, "request.validate", httpx.ErrorResponse{
				Error:  "validation_error",
				Detail: verr.Fields,
			})
			return
		case err != nil:
			httpx.LogStatusJSON(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body", errInvalidJSON)
			return
		}

		record, err := app.Submit(r.Context(), submission, survey.MetaFromRequest(r))
		if err != nil {
			httpx.LogInternalError(w, r, "storage.append", err, errStorage)
			return
		}

		log.WithFields(log.Fields{
			"submission_id": record.SubmissionID,
			"rating":        record.Rating,
		}).Debug("survey.accepted")

		httpx.JSON(w, r, http.StatusCreated, SubmitResponse{
			Status:       "ok",
			SubmissionID: record.SubmissionID,
		})
	}
}

// isJSON accepts application/json and application/*+json.
func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" ||
		(strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+json"))
}
