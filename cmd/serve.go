package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsight/siterank/internal/engine"
	"github.com/gridsight/siterank/internal/model"
	"github.com/gridsight/siterank/internal/persona"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scoring HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initScoring(ctx, cfg)
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
			Handler: newRouter(env),
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

func newRouter(env *scoringEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/score", handleScore(env))
		r.Post("/weights/priorities", handleWeightsPriorities)
		r.Post("/weights/constraints", handleWeightsConstraints)
		r.Post("/weights/blend", handleWeightsBlend)
		r.Post("/weights/goals", handleWeightsGoals)
		r.Get("/catalog/status", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, env.Catalog.Status())
		})
	})

	return r
}

func handleScore(env *scoringEnv) http.HandlerFunc {
	type scoreRequest struct {
		Candidates []model.Candidate `json:"candidates"`
		Persona    string            `json:"persona,omitempty"`
		Weights    persona.Weights   `json:"weights,omitempty"`
		Method     string            `json:"method,omitempty"`
		Enrich     bool              `json:"enrich,omitempty"`
	}

	return func(w http.ResponseWriter, req *http.Request) {
		var body scoreRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode request body"))
			return
		}

		results, err := env.Engine.ScoreBatch(req.Context(), engine.Request{
			Candidates: body.Candidates,
			Persona:    body.Persona,
			Weights:    body.Weights,
			Method:     body.Method,
			Zones:      env.Zones,
			Enrich:     body.Enrich,
		})
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	}
}

func handleWeightsPriorities(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Priorities  map[string]int `json:"priorities"`
		BlendWith   string         `json:"blend_with,omitempty"`
		BlendFactor float64        `json:"blend_factor,omitempty"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode request body"))
		return
	}

	weights, methodology, err := persona.FromPriorities(body.Priorities, body.BlendWith, body.BlendFactor)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, weightsOutput{Weights: weights, Methodology: methodology})
}

func handleWeightsConstraints(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Base        string              `json:"base"`
		Constraints persona.Constraints `json:"constraints"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode request body"))
		return
	}
	if body.Base == "" {
		body.Base = "balanced"
	}

	weights, methodology, adjustments, err := persona.FromConstraints(body.Base, body.Constraints)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, weightsOutput{Weights: weights, Methodology: methodology, Adjustments: adjustments})
}

func handleWeightsBlend(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Mix map[string]float64 `json:"mix"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode request body"))
		return
	}

	weights, methodology, err := persona.Blend(body.Mix)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, weightsOutput{Weights: weights, Methodology: methodology})
}

func handleWeightsGoals(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Goals map[string]float64 `json:"goals"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode request body"))
		return
	}

	weights, methodology, err := persona.FromGoals(body.Goals)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, weightsOutput{Weights: weights, Methodology: methodology})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
