package middleware

import (
	"encoding/json"
	"net/http"
)

// recoverWriter запоминает, начат ли уже ответ.
type recoverWriter struct {
	http.ResponseWriter
	started bool
}

func (w *recoverWriter) WriteHeader(statusCode int) {
	w.started = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *recoverWriter) Write(b []byte) (int, error) {
	w.started = true
	return w.ResponseWriter.Write(b)
}

// WithRecover превращает панику обработчика в 500 с видом ошибки "internal".
// Если ответ уже начат, статус изменить нельзя: паника только логируется.
func WithRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &recoverWriter{ResponseWriter: w}
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				sugar.Errorw("Handler panic", "uri", r.RequestURI, "panic", rec, "response_started", rw.started)
				if rw.started {
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "Internal server error",
					"kind":    "internal",
					"details": "Unknown error",
				})
			}
		}()
		next.ServeHTTP(rw, r)
	})
}
