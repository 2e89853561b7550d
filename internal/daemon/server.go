// Package daemon exposes the application core over a local control API on
// a Unix domain socket: one JSON endpoint per operation plus a websocket
// state stream for live clients.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/warp-run/scdash/internal/core"
	"github.com/warp-run/scdash/internal/metrics"
	"github.com/warp-run/scdash/internal/session"
	"github.com/warp-run/scdash/internal/tour"
)

// Version is stamped at build time.
var Version = "dev"

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  16 << 10,
	WriteBufferSize: 16 << 10,
	CheckOrigin: func(r *http.Request) bool {
		// local socket only, no cross-origin concern
		return true
	},
}

// Server serves the control API for one App.
type Server struct {
	app       *core.App
	socket    string
	log       *log.Entry
	startedAt time.Time

	httpSrv *http.Server
}

// NewServer builds the control server. It does not listen yet.
func NewServer(app *core.App, socket string) *Server {
	return &Server{
		app:       app,
		socket:    socket,
		log:       log.WithField("component", "daemon"),
		startedAt: time.Now(),
	}
}

// Serve listens on the Unix socket and blocks until ctx is cancelled or the
// listener fails. A stale socket file from a previous run is removed first.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socket), 0o700); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	if err := os.Remove(s.socket); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", s.socket)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socket, err)
	}
	if err := os.Chmod(s.socket, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("restrict socket permissions: %w", err)
	}

	s.httpSrv = &http.Server{Handler: s.router()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.Serve(ln)
	}()

	s.log.WithField("socket", s.socket).Info("control API listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpSrv.Shutdown(shutdownCtx)
		os.Remove(s.socket)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"http://localhost", "http://127.0.0.1"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Content-Type"},
	}))

	r.GET("/health", s.handleHealth)
	r.GET("/state", s.handleState)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/ws/state", s.handleStateStream)

	r.POST("/load", s.handleLoad)
	r.POST("/login", s.handleLogin)
	r.POST("/logout", s.handleLogout)
	r.POST("/refresh", s.handleRefresh)
	r.POST("/activity", s.handleActivity)
	r.POST("/maintenance", s.handleMaintenance)

	r.GET("/tickets", s.handleTickets)
	r.POST("/tickets/:id/status", s.handleTicketStatus)

	t := r.Group("/tour")
	{
		t.POST("/start", s.handleTourStart)
		t.POST("/next", s.handleTourNext)
		t.POST("/previous", s.handleTourPrevious)
		t.POST("/skip", s.handleTourSkip)
		t.POST("/end", s.handleTourEnd)
	}

	a := r.Group("/assistant")
	{
		a.POST("/message", s.handleAssistantMessage)
		a.POST("/reset", s.handleAssistantReset)
		a.POST("/modal", s.handleAssistantModal)
		a.POST("/output", s.handleAssistantOutput)
		a.POST("/listen", s.handleAssistantListen)
	}

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Version:       Version,
	})
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.app.Snapshot())
}

// handleStateStream pushes a state snapshot once per second until the
// client goes away.
func (s *Server) handleStateStream(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(s.app.Snapshot()); err != nil {
			return
		}
		select {
		case <-ticker.C:
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (s *Server) handleLoad(c *gin.Context) {
	go func() {
		if err := s.app.LoadInitial(context.Background()); err != nil {
			s.log.WithError(err).Warn("initial load failed")
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "loading"})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Method == "" {
		req.Method = "CLI"
	}
	if err := s.app.Login(c.Request.Context(), req.Email, req.Method); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s.app.Session()})
}

func (s *Server) handleLogout(c *gin.Context) {
	s.app.Logout()
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (s *Server) handleRefresh(c *gin.Context) {
	if err := s.app.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.app.Snapshot())
}

func (s *Server) handleActivity(c *gin.Context) {
	s.app.Activity()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleMaintenance(c *gin.Context) {
	var req MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.app.SetMaintenance(c.Request.Context(), req.Status, req.Confirmed); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

func (s *Server) handleTickets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tickets": s.app.Tickets()})
}

func (s *Server) handleTicketStatus(c *gin.Context) {
	var req TicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.app.UpdateTicket(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": s.app.Tickets()})
}

func (s *Server) handleTourStart(c *gin.Context) {
	var req TourStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role := session.RoleUser
	if sess := s.app.Session(); sess != nil {
		role = sess.Role
	}
	if err := s.app.Tour().Start(tour.Page(req.Page), role); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.app.Tour().State())
}

func (s *Server) handleTourNext(c *gin.Context) {
	if err := s.app.Tour().Next(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.app.Tour().State())
}

func (s *Server) handleTourPrevious(c *gin.Context) {
	if err := s.app.Tour().Previous(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.app.Tour().State())
}

func (s *Server) handleTourSkip(c *gin.Context) {
	s.app.Tour().Skip()
	c.JSON(http.StatusOK, s.app.Tour().State())
}

func (s *Server) handleTourEnd(c *gin.Context) {
	s.app.Tour().End()
	c.JSON(http.StatusOK, s.app.Tour().State())
}

func (s *Server) handleAssistantMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.app.Assistant().SendMessage(c.Request.Context(), req.Text)
	c.JSON(http.StatusOK, s.app.Assistant().Snapshot())
}

func (s *Server) handleAssistantReset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.app.Assistant().Reset(req.Confirmed); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.app.Assistant().Snapshot())
}

func (s *Server) handleAssistantModal(c *gin.Context) {
	var req ModalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.app.Assistant().SetModalOpen(req.Open)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAssistantOutput(c *gin.Context) {
	var req OutputModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.app.Assistant().SetOutputMode(req.Mode); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAssistantListen(c *gin.Context) {
	if !s.app.Assistant().VoiceInputAvailable() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "voice input is not configured"})
		return
	}
	if err := s.app.Assistant().Listen(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.app.Assistant().Snapshot())
}
