package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openclaw/qrstudio/form"
	"github.com/openclaw/qrstudio/qr"
)

const sessionCookie = "qrstudio_session"

type formResponse struct {
	form.State
	Notifications []form.Notification `json:"notifications"`
	Levels        []qr.LevelOption    `json:"levels"`
}

type fieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// session returns the caller's form session, issuing a cookie when a new
// session is created.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *form.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	sess, created := s.Sessions.Get(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func writeForm(w http.ResponseWriter, status int, sess *form.Session, state form.State) {
	writeJSON(w, status, formResponse{
		State:         state,
		Notifications: sess.Queue.Drain(),
		Levels:        qr.LevelOptions,
	})
}

func (s *Server) handleFormState(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	writeForm(w, http.StatusOK, sess, sess.Controller.State())
}

func (s *Server) handleFormField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := s.session(w, r)
	state, err := sess.Controller.Update(r.Context(), req.Field, req.Value)
	if errors.Is(err, form.ErrUnknownField) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeForm(w, http.StatusOK, sess, state)
}

func (s *Server) handleFormGenerate(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	state := sess.Controller.Generate(r.Context())
	writeForm(w, http.StatusOK, sess, state)
}

func (s *Server) handleFormDownload(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	d, ok := sess.Controller.Download()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.record(d.Options, d.Image)
	writeAttachment(w, d.Filename, d.ContentType, d.Data)
}
