package api

import (
	"net/http"
	"time"
)

type statusResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
	History  bool   `json:"history"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:   "ok",
		Uptime:   time.Since(s.StartTime).Truncate(time.Second).String(),
		Version:  s.Version,
		Sessions: s.Sessions.Len(),
		History:  s.History != nil,
	})
}
