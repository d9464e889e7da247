package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shastralib/granthalaya/internal/ingest"
	"github.com/shastralib/granthalaya/internal/library"
	"github.com/shastralib/granthalaya/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	q := models.BookQuery{
		Q:         r.URL.Query().Get("q"),
		Tradition: r.URL.Query().Get("tradition"),
		Language:  r.URL.Query().Get("language"),
	}
	var ok bool
	if q.Limit, ok = queryInt(r, "limit", 0); !ok {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if q.Offset, ok = queryInt(r, "offset", 0); !ok {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	books, total := s.catalog.List(q)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"books": books,
	})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	book, err := s.catalog.Get(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "book not found")
		return
	}
	s.respondJSON(w, http.StatusOK, book)
}

func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := s.library.Chapters()
	if err != nil {
		s.respondLibraryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"chapters": chapters})
}

func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "chapter"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid chapter number")
		return
	}
	chapter, err := s.library.Chapter(number)
	if err != nil {
		s.respondLibraryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, chapter)
}

// verseResponse is a verse with its reading-order navigation attached.
type verseResponse struct {
	*models.NormalizedVerse
	Navigation *library.Neighbors `json:"navigation"`
}

func (s *Server) handleGetVerse(w http.ResponseWriter, r *http.Request) {
	chapter, err := strconv.Atoi(chi.URLParam(r, "chapter"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid chapter number")
		return
	}
	verse, err := strconv.Atoi(chi.URLParam(r, "verse"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid verse number")
		return
	}
	v, err := s.library.Verse(chapter, verse)
	if err != nil {
		s.respondLibraryError(w, err)
		return
	}
	nav, err := s.library.Neighbors(chapter, verse)
	if err != nil {
		s.respondLibraryError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, verseResponse{NormalizedVerse: v, Navigation: nav})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.VerseQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(s.config.Search.DefaultLimit, s.config.Search.MaxLimit); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.index.Search(r.Context(), query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	report := models.StatusReport{
		Books: s.catalog.Len(),
		Config: models.StatusConfig{
			ArtifactsDir:   s.config.Storage.ArtifactsDir,
			JournalPath:    s.config.Storage.JournalPath,
			IndexPath:      s.config.Storage.IndexPath,
			CatalogPath:    s.config.Catalog.Path,
			WatchDirectory: s.config.Watch.Directory,
		},
	}

	chapters, err := s.library.Chapters()
	switch {
	case err == nil:
		report.Scripture.Ingested = true
		report.Scripture.Chapters = len(chapters)
		for _, ch := range chapters {
			report.Scripture.Verses += ch.Verses
		}
	case !errors.Is(err, library.ErrNotIngested):
		s.logger.Error("status: load scripture failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if count, err := s.index.DocCount(); err == nil {
		report.IndexedVerses = count
	}
	counts, err := s.journal.Counts(r.Context())
	if err != nil {
		s.logger.Error("status: journal counts failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	report.Ingestions = counts

	if diskBytes, err := s.store.UsageBytes(); err == nil {
		report.DiskUsageBytes = diskBytes
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleIngestScripture(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(data) == 0 {
		s.respondError(w, http.StatusBadRequest, "empty request body")
		return
	}
	summary, err := s.pipeline.Ingest(r.Context(), "api", data)
	if err != nil {
		var rejected *ingest.RejectedError
		if errors.As(err, &rejected) {
			s.respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":  "validation failed",
				"errors": rejected.Errors,
			})
			return
		}
		var persist *ingest.PersistError
		if errors.As(err, &persist) {
			body := map[string]interface{}{
				"error":  "persistence failed",
				"stage":  persist.Stage,
				"detail": persist.Err.Error(),
			}
			if persist.RawPath != "" {
				body["raw_path"] = persist.RawPath
			}
			s.respondJSON(w, http.StatusInternalServerError, body)
			return
		}
		s.logger.Error("ingestion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, summary)
}

func (s *Server) handleListIngestions(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 20)
	if !ok || limit <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	records, err := s.journal.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("list ingestions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":      len(records),
		"ingestions": records,
	})
}

// respondLibraryError maps library sentinel errors onto status codes.
func (s *Server) respondLibraryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, library.ErrNotIngested),
		errors.Is(err, library.ErrChapterNotFound),
		errors.Is(err, library.ErrVerseNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("scripture read failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func queryInt(r *http.Request, name string, fallback int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
