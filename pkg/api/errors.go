package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"

	"github.com/go-chi/render"
	logging "github.com/ipfs/go-log/v2"

	"github.com/osaleh1i1/threatexchange/internal/telemetry"
)

var log = logging.Logger("api")

// ErrorResponse is the uniform error body for router-level failures: the
// status code repeated as a string. Fault detail stays in the logs, never in
// the response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse carries a human-readable outcome for mutations. An empty
// message means success.
type MessageResponse struct {
	ErrorMessage string `json:"error_message"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: strconv.Itoa(status)})
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, MessageResponse{ErrorMessage: message})
}

// internalError reports err and answers the opaque 500 body.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Errorf("%s %s failed: %s", r.Method, r.URL.Path, err)
	telemetry.ReportError(err)
	writeError(w, r, http.StatusInternalServerError)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	log.Errorf("no route for %s %s", r.Method, r.URL.Path)
	writeError(w, r, http.StatusNotFound)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	log.Errorf("method %s not allowed for %s", r.Method, r.URL.Path)
	writeError(w, r, http.StatusMethodNotAllowed)
}

// recoverer converts handler panics into the uniform 500 response so a bad
// request cannot take the process down.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				err, ok := rvr.(error)
				if !ok {
					err = fmt.Errorf("%v", rvr)
				}
				log.Errorf("panic handling %s %s: %s\n%s", r.Method, r.URL.Path, err, debug.Stack())
				telemetry.ReportError(err)
				writeError(w, r, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
