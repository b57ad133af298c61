package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ppiankov/tagscout/internal/logging"
	"github.com/ppiankov/tagscout/internal/search"
	"github.com/ppiankov/tagscout/internal/source"
)

type hashtagResponse struct {
	Hashtag string        `json:"hashtag"`
	Origin  search.Origin `json:"origin"`
	Source  string        `json:"source,omitempty"`
	Posts   []source.Post `json:"posts"`
}

type historyResponse struct {
	History []string `json:"history"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHashtag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tag := chi.URLParam(r, "hashtag")
	realOnly, _ := strconv.ParseBool(r.URL.Query().Get("real"))

	var (
		res search.Result
		err error
	)
	if realOnly {
		res, err = s.search.SearchRealOnly(ctx, tag)
	} else {
		res, err = s.search.Search(ctx, tag)
	}
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, search.ErrEmptyHashtag) {
			status = http.StatusBadRequest
		}
		logging.FromContext(ctx, s.log).WarnContext(ctx, "search failed",
			slog.String("hashtag", tag),
			slog.Bool("real_only", realOnly),
			slog.Any("err", err),
		)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	posts := res.Posts
	if posts == nil {
		posts = []source.Post{}
	}
	writeJSON(w, http.StatusOK, hashtagResponse{
		Hashtag: res.Hashtag,
		Origin:  res.Origin,
		Source:  res.Source,
		Posts:   posts,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history := s.cache.History(r.Context())
	if history == nil {
		history = []string{}
	}
	writeJSON(w, http.StatusOK, historyResponse{History: history})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats(r.Context()))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.cache.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
