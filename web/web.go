// Package web serves a read-only JSON browser over the record stores in
// the data folder.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	_ "github.com/polliog/launch-outreach/docs"
)

const (
	shutdownTimeout = 10 * time.Second

	docsCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:"
)

type Server struct {
	srv      *http.Server
	svc      *Service
	settings Settings
	log      *zap.Logger
}

func New(svc *Service, settings Settings, log *zap.Logger) (*Server, error) {
	settings.ApplyDefaults()

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = zap.NewNop()
	}

	ans := Server{
		svc:      svc,
		settings: settings,
		log:      log,
		srv: &http.Server{
			Addr:              settings.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	if settings.AuthUser != "" {
		r.Use(ans.basicAuth)
	}

	r.Route("/api/v1/files", func(r chi.Router) {
		r.Get("/", ans.apiGetFiles)
		r.Get("/{name}/records", ans.apiGetRecords)
		r.Get("/{name}/stats", ans.apiGetStats)
		r.Get("/{name}/download", ans.downloadCSV)
	})

	r.Get("/api/docs/*", docsHandler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		renderJSON(w, http.StatusNotFound, apiError{Code: http.StatusNotFound, Message: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		renderJSON(w, http.StatusMethodNotAllowed, apiError{Code: http.StatusMethodNotAllowed, Message: "Method not allowed"})
	})

	ans.srv.Handler = r

	return &ans, nil
}

func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves until ctx is cancelled, then drains connections.
func (s *Server) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("serving records", zap.String("addr", s.srv.Addr), zap.String("data_dir", s.settings.DataDir))

		err := s.srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}

		s.log.Info("server stopped")

		return nil
	})

	return g.Wait()
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type recordsResponse struct {
	Records  []IndexedRecord `json:"records"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// apiGetFiles godoc
// @Summary List record stores
// @Description List the record stores in the data folder, newest first
// @Tags files
// @Produce json
// @Security BasicAuth
// @Success 200 {array} FileInfo
// @Failure 500 {object} apiError
// @Router /api/v1/files [get]
func (s *Server) apiGetFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.svc.Files(r.Context())
	if err != nil {
		s.renderError(w, err)

		return
	}

	renderJSON(w, http.StatusOK, files)
}

// apiGetRecords godoc
// @Summary List records
// @Description Page through the records of a store, optionally filtered by a search term
// @Tags files
// @Produce json
// @Security BasicAuth
// @Param name path string true "Store name without extension"
// @Param page query int false "Page number, starting at 1"
// @Param page_size query int false "Records per page"
// @Param search query string false "Case-insensitive match on name, tagline, email, maker and website"
// @Success 200 {object} recordsResponse
// @Failure 404 {object} apiError
// @Failure 422 {object} apiError
// @Router /api/v1/files/{name}/records [get]
func (s *Server) apiGetRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 1)
	if err != nil || page < 1 {
		renderJSON(w, http.StatusUnprocessableEntity, apiError{Code: http.StatusUnprocessableEntity, Message: "invalid page"})

		return
	}

	pageSize, err := intParam(q.Get("page_size"), s.settings.PageSize)
	if err != nil || pageSize < 1 || pageSize > s.settings.MaxPageSize {
		renderJSON(w, http.StatusUnprocessableEntity, apiError{
			Code:    http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("page_size must be between 1 and %d", s.settings.MaxPageSize),
		})

		return
	}

	if page-1 > math.MaxInt/pageSize {
		renderJSON(w, http.StatusUnprocessableEntity, apiError{Code: http.StatusUnprocessableEntity, Message: "invalid page"})

		return
	}

	records, total, err := s.svc.GetRecords(r.Context(), chi.URLParam(r, "name"), page, pageSize, q.Get("search"))
	if err != nil {
		s.renderError(w, err)

		return
	}

	renderJSON(w, http.StatusOK, recordsResponse{Records: records, Total: total, Page: page, PageSize: pageSize})
}

// apiGetStats godoc
// @Summary Store stats
// @Description Scrape and delivery counts for a store
// @Tags files
// @Produce json
// @Security BasicAuth
// @Param name path string true "Store name without extension"
// @Success 200 {object} FileStats
// @Failure 404 {object} apiError
// @Failure 422 {object} apiError
// @Router /api/v1/files/{name}/stats [get]
func (s *Server) apiGetStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Stats(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.renderError(w, err)

		return
	}

	renderJSON(w, http.StatusOK, st)
}

// downloadCSV godoc
// @Summary Download record store
// @Description Download a record store as CSV
// @Tags files
// @Produce text/csv
// @Security BasicAuth
// @Param name path string true "Store name without extension"
// @Success 200 {file} file "CSV file"
// @Failure 404 {object} apiError
// @Failure 422 {object} apiError
// @Router /api/v1/files/{name}/download [get]
func (s *Server) downloadCSV(w http.ResponseWriter, r *http.Request) {
	filePath, err := s.svc.GetCSV(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.renderError(w, err)

		return
	}

	file, err := os.Open(filePath)
	if err != nil {
		http.Error(w, "Failed to open file", http.StatusInternalServerError)

		return
	}
	defer file.Close()

	fileName := filepath.Base(filePath)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))
	w.Header().Set("Content-Type", "text/csv")

	if _, err := io.Copy(w, file); err != nil {
		s.log.Warn("download interrupted", zap.String("file", fileName), zap.Error(err))
	}
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidName):
		renderJSON(w, http.StatusUnprocessableEntity, apiError{Code: http.StatusUnprocessableEntity, Message: err.Error()})
	case errors.Is(err, ErrNotFound):
		renderJSON(w, http.StatusNotFound, apiError{Code: http.StatusNotFound, Message: err.Error()})
	default:
		s.log.Error("request failed", zap.Error(err))
		renderJSON(w, http.StatusInternalServerError, apiError{Code: http.StatusInternalServerError, Message: "internal error"})
	}
}

// basicAuth guards every route with a single user whose password is
// stored as a bcrypt hash.
func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()

		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.settings.AuthUser)) == 1
		passOK := ok && bcrypt.CompareHashAndPassword([]byte(s.settings.AuthPassHash), []byte(pass)) == nil

		if !ok || !userOK || !passOK {
			w.Header().Set("WWW-Authenticate", `Basic realm="launches"`)
			renderJSON(w, http.StatusUnauthorized, apiError{Code: http.StatusUnauthorized, Message: "Unauthorized"})

			return
		}

		next.ServeHTTP(w, r)
	})
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}

	return strconv.Atoi(raw)
}

func renderJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	_ = json.NewEncoder(w).Encode(data)
}

// docsHandler serves the Swagger UI. The UI needs inline scripts, so its
// pages get a looser policy than the API.
func docsHandler() http.HandlerFunc {
	ui := httpSwagger.Handler(httpSwagger.URL("/api/docs/doc.json"))

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", docsCSP)
		ui(w, r)
	}
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		next.ServeHTTP(w, r)
	})
}
