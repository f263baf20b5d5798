package api

import (
	"context"
	"net/http"
	"time"

	"github.com/LJTian/WordWeave/internal/actions"
	"github.com/LJTian/WordWeave/internal/apperrors"
	"github.com/LJTian/WordWeave/internal/logger"
	"github.com/LJTian/WordWeave/internal/merge"
	"github.com/LJTian/WordWeave/internal/monitor"
	"github.com/LJTian/WordWeave/internal/session"
	"github.com/LJTian/WordWeave/internal/settings"
	"github.com/LJTian/WordWeave/internal/storage"
	"github.com/gin-gonic/gin"
)

type Server struct {
	sessions *session.Manager
	monitor  *monitor.Monitor
	kv       storage.KV
	store    *storage.Store
	speaker  actions.Speaker
	now      func() time.Time
}

func NewServer(mgr *session.Manager, mon *monitor.Monitor, kv storage.KV, store *storage.Store) *Server {
	return &Server{sessions: mgr, monitor: mon, kv: kv, store: store, now: time.Now}
}

// WithSpeaker 为 speak 操作接入朗读能力
func (s *Server) WithSpeaker(sp actions.Speaker) *Server {
	s.speaker = sp
	return s
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/sessions", s.openSession)
		v1.GET("/sessions/:id", s.sessionHTML)
		v1.DELETE("/sessions/:id", s.closeSession)
		v1.POST("/sessions/:id/scroll", s.scroll)
		v1.POST("/sessions/:id/toggle", s.toggle)
		v1.GET("/sessions/:id/words", s.words)
		v1.POST("/sessions/:id/actions", s.action)
		v1.GET("/sessions/:id/snapshot", s.snapshot)

		v1.GET("/connection", s.connection)
		v1.POST("/connection/retry", s.retryConnection)

		v1.GET("/stats", s.stats)
		v1.GET("/usage", s.usage)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

// fail 按错误类别映射状态码
func fail(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	if kind, found := apperrors.KindOf(err); found {
		code = string(kind)
		switch kind {
		case apperrors.KindInvalidInput:
			status = http.StatusBadRequest
		case apperrors.KindNotFound:
			status = http.StatusNotFound
		case apperrors.KindConfigurationGap:
			status = http.StatusUnprocessableEntity
		case apperrors.KindFetchFailure, apperrors.KindProbeFailure:
			status = http.StatusBadGateway
		}
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{
		"code":    code,
		"message": err.Error(),
	})
}

func (s *Server) lookup(c *gin.Context) (*session.Session, bool) {
	id := c.Param("id")
	sess, found := s.sessions.Get(id)
	if !found {
		fail(c, apperrors.New(apperrors.KindNotFound, "api", "session "+id+" not found", nil))
		return nil, false
	}
	return sess, true
}

type sessionView struct {
	ID      string              `json:"id"`
	URL     string              `json:"url"`
	Title   string              `json:"title"`
	Regions int                 `json:"regions"`
	Pass    *session.PassResult `json:"pass,omitempty"`
}

func (s *Server) openSession(c *gin.Context) {
	var req session.OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.New(apperrors.KindInvalidInput, "api", "invalid json", err))
		return
	}
	sess, res, err := s.sessions.Open(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, sessionView{
		ID:      sess.ID,
		URL:     sess.URL,
		Title:   sess.Title,
		Regions: sess.RegionCount(),
		Pass:    res,
	})
}

func (s *Server) sessionHTML(c *gin.Context) {
	sess, found := s.lookup(c)
	if !found {
		return
	}
	html, err := sess.HTML()
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (s *Server) closeSession(c *gin.Context) {
	if !s.sessions.Close(c.Param("id")) {
		fail(c, apperrors.New(apperrors.KindNotFound, "api", "session not found", nil))
		return
	}
	ok(c, http.StatusOK, gin.H{"closed": true})
}

// scrollRequest 三选一：下标列表、区间、或滚动位置（需要渲染服务）
type scrollRequest struct {
	All     bool  `json:"all"`
	Indices []int `json:"indices"`
	From    *int  `json:"from"`
	To      *int  `json:"to"`
	ScrollY *int  `json:"scrollY"`
	Width   int   `json:"width"`
	Height  int   `json:"height"`
	// Sync 为 true 时跳过防抖，直接执行并返回结果
	Sync bool `json:"sync"`
}

func (s *Server) viewport(ctx context.Context, sess *session.Session, req scrollRequest) (session.Viewport, error) {
	switch {
	case req.All:
		return session.AllRegions, nil
	case len(req.Indices) > 0:
		return session.IndexSet(req.Indices), nil
	case req.From != nil && req.To != nil:
		return session.RegionRange{From: *req.From, To: *req.To}, nil
	case req.ScrollY != nil:
		return s.sessions.Visible(ctx, sess, req.Width, req.Height, *req.ScrollY)
	}
	return nil, apperrors.New(apperrors.KindInvalidInput, "api", "one of all, indices, from/to or scrollY is required", nil)
}

func (s *Server) scroll(c *gin.Context) {
	sess, found := s.lookup(c)
	if !found {
		return
	}
	var req scrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.New(apperrors.KindInvalidInput, "api", "invalid json", err))
		return
	}
	vp, err := s.viewport(c.Request.Context(), sess, req)
	if err != nil {
		fail(c, err)
		return
	}
	if !req.Sync {
		sess.Scroll(vp)
		ok(c, http.StatusAccepted, gin.H{"scheduled": true, "quietPeriodMs": session.ScrollQuietPeriod.Milliseconds()})
		return
	}
	res, err := sess.Pass(c.Request.Context(), vp)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

func (s *Server) toggle(c *gin.Context) {
	sess, found := s.lookup(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, gin.H{"toggled": sess.Toggle()})
}

func (s *Server) words(c *gin.Context) {
	sess, found := s.lookup(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, gin.H{
		"translated": sess.TranslatedWords(),
		"last":       sess.LastTranslated(),
		"markers":    sess.Markers(),
	})
}

func (s *Server) action(c *gin.Context) {
	sess, found := s.lookup(c)
	if !found {
		return
	}
	var req actions.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.New(apperrors.KindInvalidInput, "api", "invalid json", err))
		return
	}
	h := actions.NewHandler(s.kv, sess.Settings().TargetLanguage, s.speaker)
	res, err := h.Do(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

func (s *Server) snapshot(c *gin.Context) {
	if s.store == nil {
		fail(c, apperrors.ConfigurationGap("api", "database is not configured"))
		return
	}
	snap, err := s.store.GetSnapshot(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if snap == nil {
		fail(c, apperrors.New(apperrors.KindNotFound, "api", "snapshot not found", nil))
		return
	}
	ok(c, http.StatusOK, snap)
}

func (s *Server) connection(c *gin.Context) {
	if s.monitor == nil {
		ok(c, http.StatusOK, monitor.Status{State: monitor.Unknown.String()})
		return
	}
	ok(c, http.StatusOK, s.monitor.Snapshot())
}

func (s *Server) retryConnection(c *gin.Context) {
	if s.monitor == nil {
		fail(c, apperrors.ConfigurationGap("api", "connection monitor is not running"))
		return
	}
	s.monitor.RetryNow(c.Request.Context())
	ok(c, http.StatusOK, s.monitor.Snapshot())
}

func (s *Server) stats(c *gin.Context) {
	raw, err := settings.GetString(c.Request.Context(), s.kv, settings.KeyStats)
	if err != nil {
		fail(c, err)
		return
	}
	st, err := merge.ParseStats(raw)
	if err != nil {
		fail(c, apperrors.MalformedOverride("api", settings.KeyStats, err))
		return
	}
	ok(c, http.StatusOK, st)
}

func (s *Server) usage(c *gin.Context) {
	period := c.DefaultQuery("period", storage.PeriodDay)
	if period != storage.PeriodDay && period != storage.PeriodMonth {
		fail(c, apperrors.New(apperrors.KindInvalidInput, "api", "period must be day or month", nil))
		return
	}
	key := c.Query("key")
	if key == "" {
		layout := "2006-01-02"
		if period == storage.PeriodMonth {
			layout = "2006-01"
		}
		key = s.now().Format(layout)
	}
	if s.store == nil {
		ok(c, http.StatusOK, []storage.UsageRecord{})
		return
	}
	items, err := s.store.ListUsage(period, key)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}
