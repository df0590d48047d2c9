package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
	appLogger "github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/infra/logger"
)

const (
	probeGuardProblemType  = "https://trend-diary.example.com/errors/too-many-failed-authentications"
	probeGuardProblemTitle = "Too Many Failed Authentications"
)

// ProblemDetails represents an RFC 9457 compatible error payload.
type ProblemDetails struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Detail     string `json:"detail"`
	Instance   string `json:"instance"`
	RetryAfter int    `json:"retry_after"`
	TraceID    string `json:"trace_id,omitempty"`
}

// ProbeRejectionRecorder counts requests refused by the guard.
type ProbeRejectionRecorder interface {
	RecordProbeRejection()
}

// ProbeGuardConfig configures the failed-authentication limit.
type ProbeGuardConfig struct {
	MaxFailures int
	Window      time.Duration
}

// ProbeGuard limits how many failed session authentications one client may produce within a
// sliding window. Once the limit is reached every request from that client gets 429 until the
// oldest failure leaves the window.
type ProbeGuard struct {
	store    port.FailureWindowStore
	cfg      ProbeGuardConfig
	recorder ProbeRejectionRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewProbeGuard builds a guard backed by store. A nil recorder is allowed.
func NewProbeGuard(store port.FailureWindowStore, cfg ProbeGuardConfig, recorder ProbeRejectionRecorder, log *zap.Logger) *ProbeGuard {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProbeGuard{
		store:    store,
		cfg:      cfg,
		recorder: recorder,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (g *ProbeGuard) WithClock(now func() time.Time) *ProbeGuard {
	if now != nil {
		g.now = now
	}
	return g
}

// Handler returns the middleware. It must wrap the session middleware so it can observe failures.
// Storage errors fail open.
func (g *ProbeGuard) Handler() gin.HandlerFunc {
	if g == nil || g.store == nil || g.cfg.MaxFailures <= 0 || g.cfg.Window <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		client := c.ClientIP()
		if client == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		now := g.now()

		count, oldest, err := g.store.Failures(ctx, client, g.cfg.Window, now)
		if err != nil {
			g.logger.Warn("probe guard lookup failed", zap.String("client_ip", appLogger.MaskIP(client)), zap.Error(err))
		} else if count >= g.cfg.MaxFailures {
			g.reject(c, oldest.Add(g.cfg.Window).Sub(now), client)
			return
		}

		c.Next()

		outcome, failed := authFailure(c)
		if !failed {
			return
		}

		if err := g.store.RecordFailure(ctx, client, g.cfg.Window, g.now()); err != nil {
			g.logger.Warn("probe guard record failed", zap.String("client_ip", appLogger.MaskIP(client)), zap.Error(err))
			return
		}

		g.logger.Debug("failed authentication recorded",
			zap.String("client_ip", appLogger.MaskIP(client)),
			zap.String("outcome", outcome),
		)
	}
}

func (g *ProbeGuard) reject(c *gin.Context, retryAfter time.Duration, client string) {
	if retryAfter < 0 {
		retryAfter = 0
	}
	seconds := int(math.Ceil(retryAfter.Seconds()))

	if g.recorder != nil {
		g.recorder.RecordProbeRejection()
	}
	g.logger.Info("probe guard rejected request",
		zap.String("client_ip", appLogger.MaskIP(client)),
		zap.Int("retry_after", seconds),
	)

	c.Header("Retry-After", strconv.Itoa(seconds))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, ProblemDetails{
		Type:       probeGuardProblemType,
		Title:      probeGuardProblemTitle,
		Status:     http.StatusTooManyRequests,
		Detail:     fmt.Sprintf("Too many failed authentication attempts. Try again in %d seconds.", seconds),
		Instance:   EndpointPath(c),
		RetryAfter: seconds,
		TraceID:    GetTraceID(c),
	})
}
