package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/docstash/internal/ask"
	"github.com/sells-group/docstash/internal/model"
	"github.com/sells-group/docstash/internal/stash"
	"github.com/sells-group/docstash/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env.Service),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(svc *stash.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/ask", handleAsk(svc))
		r.Get("/search", handleSearch(svc))
		r.Get("/documents", handleListDocuments(svc))
		r.Post("/documents", handleAddDocument(svc))
		r.Delete("/documents/{id}", handleDeleteDocument(svc))
		r.Post("/inbox/process", handleInbox(svc))
		r.Get("/cache/stats", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, svc.CacheStats())
		})
		r.Post("/cache/clear", func(w http.ResponseWriter, _ *http.Request) {
			svc.ClearCache()
			writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
		})
	})

	return r
}

func handleAsk(svc *stash.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL         string `json:"url"`
			DocumentID  string `json:"document_id"`
			Instruction string `json:"instruction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Instruction == "" {
			writeError(w, http.StatusBadRequest, "instruction is required")
			return
		}
		if (req.URL == "") == (req.DocumentID == "") {
			writeError(w, http.StatusBadRequest, "exactly one of url or document_id is required")
			return
		}

		var (
			result *model.AskResult
			err    error
		)
		if req.URL != "" {
			result, err = svc.AskURL(r.Context(), req.URL, req.Instruction)
		} else {
			result, err = svc.AskDocument(r.Context(), req.DocumentID, req.Instruction)
		}
		if err != nil {
			writeAskError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func writeAskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ask.ErrTooLarge), errors.Is(err, ask.ErrHardLimitExceeded):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, ask.ErrMissingCapability):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		zap.L().Error("ask failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func handleSearch(svc *stash.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			writeError(w, http.StatusBadRequest, "q is required")
			return
		}

		results, err := svc.Search(r.Context(), query)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if results == nil {
			results = []model.SearchResult{}
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func handleListDocuments(svc *stash.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		docs, err := svc.List(r.Context(), store.DocumentFilter{
			ContentType: model.ContentType(r.URL.Query().Get("type")),
			Topic:       r.URL.Query().Get("topic"),
			Limit:       limit,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if docs == nil {
			docs = []model.Document{}
		}
		writeJSON(w, http.StatusOK, docs)
	}
}

func handleAddDocument(svc *stash.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}

		doc, err := svc.AddURL(r.Context(), req.URL)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, doc)
	}
}

func handleDeleteDocument(svc *stash.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	}
}

func handleInbox(svc *stash.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.ProcessInbox(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
