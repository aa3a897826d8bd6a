package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/openclaw/qrstudio/qr"
)

type encodeResponse struct {
	ID       string    `json:"id,omitempty"`
	DataURI  string    `json:"data_uri"`
	Filename string    `json:"filename"`
	Format   qr.Format `json:"type"`
	Width    int       `json:"width"`
	Modules  int       `json:"modules"`
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	opts := s.Defaults
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	opts = opts.Normalized()

	img, err := s.Encoder.Encode(r.Context(), opts)
	if err != nil {
		s.Log.Debug("encode rejected", "error", err)
		writeEncodeError(w, err)
		return
	}
	id := s.record(opts, img)

	writeJSON(w, http.StatusOK, encodeResponse{
		ID:       id,
		DataURI:  img.DataURI(),
		Filename: img.Filename(),
		Format:   img.Format,
		Width:    img.Width,
		Modules:  img.Modules,
	})
}

func (s *Server) handleEncodeDownload(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromQuery(r.URL.Query(), s.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := s.Encoder.Encode(r.Context(), opts)
	if err != nil {
		writeEncodeError(w, err)
		return
	}
	s.record(opts, img)

	writeAttachment(w, img.Filename(), string(img.Format), img.Data)
}

// optionsFromQuery overlays query parameters on defaults.
func optionsFromQuery(q url.Values, defaults qr.Options) (qr.Options, error) {
	opts := defaults
	opts.Text = q.Get("text")
	if v := q.Get("error_correction"); v != "" {
		opts.ErrorCorrection = qr.Level(v)
	}
	if v := q.Get("type"); v != "" {
		opts.Format = qr.Format(v)
	}
	if v := q.Get("foreground"); v != "" {
		opts.Foreground = v
	}
	if v := q.Get("background"); v != "" {
		opts.Background = v
	}
	if v := q.Get("quality"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("quality must be a number")
		}
		opts.Quality = f
	}
	for _, p := range []struct {
		key string
		dst *int
	}{
		{"margin", &opts.Margin},
		{"width", &opts.Width},
	} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("%s must be an integer", p.key)
		}
		*p.dst = n
	}
	return opts.Normalized(), nil
}
