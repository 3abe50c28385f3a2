package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"chatbot-backend/internal/api/middleware"
	"chatbot-backend/internal/lib/sl"
	"chatbot-backend/internal/queue"
)

type apiFunc func(http.ResponseWriter, *http.Request) error

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// MakeHTTPHandleFunc runs f on the request queue and turns a returned error
// into a JSON error response. authMiddleware wraps f only, after CORS and
// access logging.
func (s *APIServer) MakeHTTPHandleFunc(f apiFunc, authMiddleware ...middleware.Middleware) http.HandlerFunc {
	baseHandler := func(w http.ResponseWriter, r *http.Request) {
		errc := make(chan error, 1)

		s.requestQueueManager.EnqueueJob(queue.Job{
			Fn: func() error {
				return f(w, r)
			},
			Errc: errc,
		})

		err := <-errc
		if err == nil {
			return
		}

		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			level := slog.LevelWarn
			if httpErr.StatusCode >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			s.log.Log(r.Context(), level, "request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", httpErr.StatusCode),
				sl.Err(httpErr.ErrorLog),
			)
			WriteJSON(w, httpErr.StatusCode, ApiError{Error: httpErr.Message})
			return
		}

		s.log.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			sl.Err(err),
		)
		WriteJSON(w, http.StatusInternalServerError, ApiError{Error: "Internal server error"})
	}

	handler := baseHandler
	for _, m := range authMiddleware {
		handler = m(handler)
	}

	return middleware.Chain(handler,
		middleware.CORS(s.cors),
		middleware.Logging(s.log),
	)
}
