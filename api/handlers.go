package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/libintegration/cachingsvc/cache"
	"github.com/libintegration/cachingsvc/coalesce"
	"github.com/libintegration/cachingsvc/controller"
	"github.com/libintegration/cachingsvc/observe"
	"github.com/libintegration/cachingsvc/payload"
	"github.com/libintegration/cachingsvc/store"
)

// maxBodyBytes caps the request body. Generous enough for the payload
// limits, small enough to shed abusive requests early.
const maxBodyBytes = 16 << 20

// resolveRequest is the POST /payload body. Elements decode as pointers
// so JSON nulls are distinguishable from empty strings and rejectable.
type resolveRequest struct {
	List1 []*string `json:"list_1"`
	List2 []*string `json:"list_2"`
}

// resolveResponse is the POST /payload response.
type resolveResponse struct {
	PayloadID string `json:"payload_id"`
}

// fetchResponse is the GET /payload/{id} response.
type fetchResponse struct {
	Output string `json:"output"`
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req resolveRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON with list_1 and list_2")
		return
	}

	p, err := buildPayload(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.controller.Resolve(ctx, p)
	if err != nil {
		s.writeResolveError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{PayloadID: id})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !payload.ValidID(id) {
		// A malformed id can never name an entry; report plain absence.
		writeError(w, http.StatusNotFound, "payload id not found")
		return
	}

	out, err := s.controller.Fetch(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, controller.ErrNotFound):
			writeError(w, http.StatusNotFound, "payload id not found")
		case errors.Is(err, store.ErrUnavailable), errors.Is(err, cache.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "backing store unavailable")
		default:
			s.logger.Error(r.Context(), "fetch failed",
				observe.String("payload.id", id), observe.Err(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, fetchResponse{Output: out})
}

// buildPayload validates the raw request and converts it to the domain
// payload. Nil lists and null elements never reach the cache core.
func buildPayload(req resolveRequest) (payload.Payload, error) {
	if req.List1 == nil || req.List2 == nil {
		return payload.Payload{}, errors.New("list_1 and list_2 are required")
	}
	if len(req.List1) != len(req.List2) {
		return payload.Payload{}, errors.New("list_1 and list_2 must be of the same length")
	}

	p := payload.Payload{
		List1: make([]string, len(req.List1)),
		List2: make([]string, len(req.List2)),
	}
	for i, e := range req.List1 {
		if e == nil {
			return payload.Payload{}, errors.New("list_1 elements must be strings, not null")
		}
		p.List1[i] = *e
	}
	for i, e := range req.List2 {
		if e == nil {
			return payload.Payload{}, errors.New("list_2 elements must be strings, not null")
		}
		p.List2[i] = *e
	}

	if err := p.Validate(); err != nil {
		return payload.Payload{}, err
	}
	return p, nil
}

func (s *Server) writeResolveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, payload.ErrNilList),
		errors.Is(err, payload.ErrLengthMismatch),
		errors.Is(err, payload.ErrTooManyItems),
		errors.Is(err, payload.ErrItemTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, coalesce.ErrWaitTimeout):
		// Retryable: the caller may resubmit and find the resolved
		// result or re-attempt ownership.
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "computation in progress, retry later")
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, cache.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "backing store unavailable")
	case errors.Is(err, controller.ErrInvariantViolation):
		s.logger.Error(r.Context(), "invariant violation", observe.Err(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		s.logger.Error(r.Context(), "resolve failed", observe.Err(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
