package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/workscorehq/workscore/internal/config"
	"github.com/workscorehq/workscore/internal/engine"
	"github.com/workscorehq/workscore/internal/errors"
	"github.com/workscorehq/workscore/internal/history"
	"github.com/workscorehq/workscore/internal/monitoring"
	"github.com/workscorehq/workscore/internal/ratelimit"
	"github.com/workscorehq/workscore/internal/types"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		monitoring.NewLogger("info").Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := monitoring.NewLogger(cfg.LogLevel)
	metrics := monitoring.NewMetrics()

	store, err := history.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open history store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	vars := newVarStore()
	orch, err := engine.New(cfg, vars, store, metrics, logger)
	if err != nil {
		logger.Error("Failed to initialize orchestrator", "error", err)
		os.Exit(1)
	}

	r := newRouter(cfg, orch, store, vars, metrics, logger)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		logger.Info("Starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("Server exited")
}

func newRouter(cfg *config.Config, orch *engine.Orchestrator, store *history.Store, vars *varStore, metrics *monitoring.Metrics, logger *monitoring.Logger) *gin.Engine {
	r := gin.New()

	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))
	r.Use(monitoring.Middleware(metrics, logger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(ratelimit.Middleware(ratelimit.NewLimiter(cfg.RateLimitPerMinute)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   version,
		})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.POST("/score/team", func(c *gin.Context) {
		var req scoreTeamRequest
		if err := c.BindJSON(&req); err != nil {
			appErr := errors.NewInvalidVariable("body", "malformed request body")
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
		if len(req.Members) == 0 {
			appErr := errors.NewInvalidVariable("members", "members must not be empty")
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		roster := make([]string, 0, len(req.Members))
		for i := range req.Members {
			m := &req.Members[i]
			if m.Period == "" {
				m.Period = req.Period
			}
			vars.put(*m)
			roster = append(roster, m.UserID)
		}

		result, err := orch.Run(c.Request.Context(), engine.RunRequest{
			TeamID: req.TeamID,
			Period: req.Period,
			Roster: roster,
		})
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusOK, result)
	})

	r.GET("/users/:id/history", func(c *gin.Context) {
		userID := c.Param("id")

		records, err := store.GetHistory(c.Request.Context(), userID)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
		if len(records) == 0 {
			appErr := errors.NewNotFound("no score history for user " + userID)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user_id": userID,
			"points":  history.Points(records),
			"records": records,
		})
	})

	// Effective coefficients, so every reported score can be traced back to
	// the formula that produced it.
	r.GET("/config/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"scoring": gin.H{
				"alpha":           cfg.Scoring.Alpha,
				"beta":            cfg.Scoring.Beta,
				"gamma":           cfg.Scoring.Gamma,
				"delta":           cfg.Scoring.Delta,
				"lambda_delays":   cfg.Scoring.LambdaDelays,
				"lambda_blockers": cfg.Scoring.LambdaBlockers,
				"lambda_rework":   cfg.Scoring.LambdaRework,
				"role_weights":    cfg.Scoring.RoleWeights,
				"default_weight":  cfg.Scoring.DefaultWeight,
			},
			"normalize": gin.H{
				"min_team_size":      cfg.Normalize.MinTeamSize,
				"dispersion_ceiling": cfg.Normalize.DispersionCeiling,
			},
			"indicators": gin.H{
				"workload_share_threshold": cfg.Indicators.WorkloadShareThreshold,
				"burnout_high_threshold":   cfg.Indicators.BurnoutHighThreshold,
				"trend_window":             cfg.Indicators.TrendWindow,
				"promotion_floor":          cfg.Indicators.PromotionFloor,
			},
			"run_timeout":     cfg.RunTimeout.String(),
			"max_concurrency": cfg.MaxConcurrency,
		})
	})

	return r
}

// scoreTeamRequest is the inline-variables form of a scoring run: the
// request payload carries every member's activity variables directly.
type scoreTeamRequest struct {
	TeamID  string                    `json:"team_id" binding:"required"`
	Period  string                    `json:"period" binding:"required"`
	Members []types.ActivityVariables `json:"members"`
}

// varStore adapts inline request payloads to the connector interface.
// First write per (user, period) wins, mirroring the write-once history
// policy: a re-submitted period does not silently change inputs.
type varStore struct {
	mu   sync.RWMutex
	vars map[string]types.ActivityVariables
}

func newVarStore() *varStore {
	return &varStore{vars: make(map[string]types.ActivityVariables)}
}

func (s *varStore) put(v types.ActivityVariables) {
	key := v.UserID + "|" + v.Period
	s.mu.Lock()
	if _, ok := s.vars[key]; !ok {
		s.vars[key] = v
	}
	s.mu.Unlock()
}

// FetchActivity implements connector.Connector.
func (s *varStore) FetchActivity(ctx context.Context, userID, period string) (types.ActivityVariables, error) {
	if err := ctx.Err(); err != nil {
		return types.ActivityVariables{}, err
	}
	s.mu.RLock()
	v, ok := s.vars[userID+"|"+period]
	s.mu.RUnlock()
	if !ok {
		return types.ActivityVariables{}, errors.NewNotFound(
			"no activity variables for user " + userID + " in period " + period)
	}
	return v, nil
}
