package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openclaw/qrstudio/events"
	"github.com/openclaw/qrstudio/form"
	"github.com/openclaw/qrstudio/qr"
	"github.com/openclaw/qrstudio/store"
)

// Server holds the dependencies for all HTTP handlers.
type Server struct {
	Sessions  *form.Sessions
	Encoder   qr.Encoder
	Defaults  qr.Options
	History   *store.HistoryStore // nil when history is disabled
	Webhook   *events.WebhookSender
	Log       *slog.Logger
	Version   string
	StartTime time.Time
}

// NewRouter returns a fully configured chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(requestLogger(s.Log))

	// Web UI
	r.Get("/", s.handlePage)

	// Stateless encoding
	r.Post("/api/encode", s.handleEncode)
	r.Get("/api/encode/download", s.handleEncodeDownload)

	// Session-backed form
	r.Get("/form/state", s.handleFormState)
	r.Post("/form/field", s.handleFormField)
	r.Post("/form/generate", s.handleFormGenerate)
	r.Get("/form/download", s.handleFormDownload)

	// History
	r.Get("/history", s.handleHistory)
	r.Get("/history/search", s.handleHistorySearch)
	r.Get("/history/{id}/image", s.handleHistoryImage)

	r.Get("/status", s.handleStatus)

	return r
}

// record stores a generation in the history and forwards it to the webhook.
// Failures are logged and never reach the user.
func (s *Server) record(opts qr.Options, img *qr.Image) string {
	if s.History == nil && (s.Webhook == nil || !s.Webhook.Enabled()) {
		return ""
	}
	g := store.NewGeneration(opts, img)
	if s.History != nil {
		if err := s.History.SaveGeneration(g); err != nil {
			s.Log.Error("failed to save generation", "error", err, "id", g.ID)
		}
	}
	if s.Webhook != nil && s.Webhook.Enabled() {
		evt := &events.GenerationEvent{
			ID:              g.ID,
			Text:            g.Text,
			Format:          string(g.Format),
			ErrorCorrection: string(g.ErrorCorrection),
			Width:           g.Width,
			Bytes:           g.Bytes,
			Timestamp:       g.CreatedAt,
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := s.Webhook.Send(ctx, evt); err != nil {
				s.Log.Warn("failed to send webhook", "error", err, "id", evt.ID)
			}
		}()
	}
	return g.ID
}

// --- helpers ----------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeEncodeError maps an encoder error to an HTTP status.
func writeEncodeError(w http.ResponseWriter, err error) {
	code := qr.CodeOf(err)
	switch code {
	case qr.CodeEmptyText, qr.CodeInvalidOption:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "code": string(code)})
	case qr.CodeEncodeFailed:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error(), "code": string(code)})
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeAttachment(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// --- middleware --------------------------------------------------------------

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
			next.ServeHTTP(w, r)
		})
	}
}
