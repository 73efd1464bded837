package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/c-bert/blog-app-mongoose-challenge-solution/errs"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

const (
	maxResponseSize         = 10 * 1024 * 1024 // 10MB
	maxPendingNotifications = 8
	databaseRetryAfter      = "5"
)

type Responder struct {
	logger      zerolog.Logger
	notifyURL   string
	client      *http.Client
	notifySlots *semaphore.Weighted
}

type ResponderOption func(*Responder)

// WithErrorNotificationURL makes the responder POST unexpected errors to url
func WithErrorNotificationURL(url string) ResponderOption {
	return func(r *Responder) {
		r.notifyURL = url
	}
}

func NewResponder(logger zerolog.Logger, opts ...ResponderOption) Responder {
	r := Responder{
		logger:      logger,
		client:      &http.Client{Timeout: 5 * time.Second},
		notifySlots: semaphore.NewWeighted(maxPendingNotifications),
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WriteJSON writes data with a 200 status
func (r Responder) WriteJSON(w http.ResponseWriter, data any) {
	r.WriteJSONStatus(w, http.StatusOK, data)
}

func (r Responder) WriteJSONStatus(w http.ResponseWriter, status int, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if len(jsonData) > maxResponseSize {
		r.logger.Error().
			Int("responseSize", len(jsonData)).
			Int("maxSize", maxResponseSize).
			Msg("response too large, truncating")

		truncatedJSON, _ := json.Marshal(map[string]any{
			"error":        "Response too large",
			"message":      "The requested data exceeds the maximum response size",
			"maxSizeMB":    maxResponseSize / (1024 * 1024),
			"actualSizeMB": len(jsonData) / (1024 * 1024),
		})
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		w.Write(truncatedJSON)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(jsonData); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

// WriteNoContent signals success with an empty body
func (r Responder) WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// notifyAsync sends the notification off the request path. At most
// maxPendingNotifications are in flight, extra ones are dropped.
func (r Responder) notifyAsync(errMsg string) {
	if r.notifyURL == "" {
		return
	}
	if !r.notifySlots.TryAcquire(1) {
		r.logger.Warn().Str("errorMessage", errMsg).Msg("dropping error notification, too many in flight")
		return
	}
	go func() {
		defer r.notifySlots.Release(1)
		r.SendErrorNotification(errMsg)
	}()
}

func (r Responder) SendErrorNotification(errMsg string) {
	if r.notifyURL == "" {
		return
	}

	jsonData, err := json.Marshal(map[string]string{
		"errorMessage": errMsg,
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("Error marshaling error notification request")
		return
	}

	resp, err := r.client.Post(r.notifyURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		r.logger.Error().Err(err).Msg("Error sending error notification")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		r.logger.Error().Msgf("Error notification service returned status: %d", resp.StatusCode)
	}
}

func (r Responder) WriteError(w http.ResponseWriter, err error) {
	var apiErr *errs.ApiErr

	// For unexpected errors, log and return generic internal error
	if !errors.As(err, &apiErr) {
		r.logger.Error().Err(err).Msg("unexpected error")
		r.notifyAsync(err.Error())
		r.WriteJSONStatus(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal Server Error",
			Status:  "error",
			Details: "An unexpected error occurred",
		})
		return
	}

	response := ErrorResponse{
		Error:   apiErr.Error(),
		Status:  "error",
		Field:   apiErr.Field,
		Details: apiErr.Details,
	}
	if apiErr.Cause != nil {
		response.Cause = apiErr.GetFullError()
	}
	if apiErr.StatusCode >= http.StatusInternalServerError {
		r.logger.Error().Err(err).Int("status", apiErr.StatusCode).Msg(apiErr.GetFullError())
	}
	if errs.IsDatabaseConnectionError(err) || errs.IsDatabaseTimeoutError(err) {
		w.Header().Set("Retry-After", databaseRetryAfter)
	}

	r.WriteJSONStatus(w, apiErr.StatusCode, response)
}

// wrapDatabaseError wraps a database error with context information
func wrapDatabaseError(operation, entity string, cause error) error {
	return errs.NewDatabaseError(operation, entity, cause)
}
