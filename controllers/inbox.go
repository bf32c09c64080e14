package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/crollins/chorus/activities"
	"github.com/crollins/chorus/dispatch"
	"github.com/crollins/chorus/models"
	"github.com/crollins/chorus/storage"
)

const maxActivitySz = 16 * (1 << 20) // 16 MB

// Inbox is a controller that receives federated activities and hands them
// to the dispatcher. HTTP signature authentication of the sender happens
// upstream of this handler.
type Inbox struct {
	dispatcher *dispatch.Dispatcher
	log        *logrus.Entry
}

// NewInbox creates a new Inbox controller
func NewInbox(dispatcher *dispatch.Dispatcher, log *logrus.Entry) *Inbox {
	return &Inbox{
		dispatcher: dispatcher,
		log:        log,
	}
}

func errorResponse(w http.ResponseWriter, statusCode int, err error) {
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write([]byte(err.Error())); writeErr != nil {
		logrus.WithError(writeErr).Error("error writing response")
	}
}

func (i *Inbox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxActivitySz)
	bodyBytes, err := io.ReadAll(body)
	if err != nil {
		errorResponse(w, http.StatusNotAcceptable, errors.New("could not read request body"))
		return
	}

	if err := i.dispatcher.Process(r.Context(), bodyBytes); err != nil {
		status := statusFor(err)
		if status >= 500 {
			// Internal failure detail stays in the log, not on the wire.
			i.log.WithError(err).Error("could not process activity")
			errorResponse(w, status, errors.New("internal error"))
			return
		}
		errorResponse(w, status, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// statusFor maps a processing failure to the response status. Rejections
// are the sender's problem; storage failures are ours.
func statusFor(err error) int {
	switch {
	case errors.Is(err, activities.ErrUnsupportedActivityType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, models.ErrMalformedEnvelope):
		return http.StatusBadRequest
	case errors.Is(err, activities.ErrDomainMismatch),
		errors.Is(err, activities.ErrNotAMember),
		errors.Is(err, activities.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, activities.ErrRecursionLimit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
