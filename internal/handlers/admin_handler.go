package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/printeasy-orderflow/internal/admin"
	"github.com/imrishuroy/printeasy-orderflow/internal/orders"
	"github.com/imrishuroy/printeasy-orderflow/internal/session"
	"github.com/imrishuroy/printeasy-orderflow/internal/validation"
)

// AdminConfig groups dependencies for the operator routes.
type AdminConfig struct {
	Service      *admin.Service
	Signer       *session.Signer
	Validator    *validatorv10.Validate
	PollInterval time.Duration
	NowFunc      func() time.Time
}

type dashboardResponse struct {
	*admin.Dashboard
	Cached           bool `json:"cached"`
	PollAfterSeconds int  `json:"poll_after_seconds"`
}

// RegisterAdminRoutes registers login, logout and the authenticated admin API.
func RegisterAdminRoutes(r gin.IRouter, cfg AdminConfig) {
	if cfg.NowFunc == nil {
		cfg.NowFunc = time.Now
	}
	h := &adminHandler{cfg: cfg}

	r.POST("/api/admin/login", h.login)
	r.POST("/api/admin/logout", h.logout)

	g := r.Group("/api/admin", RequireAdmin(cfg.Signer))
	g.GET("/dashboard", h.dashboard)
	g.GET("/orders", h.list)
	g.POST("/orders/:id/done", h.markDone)
}

// RequireAdmin rejects requests without a valid admin token cookie.
func RequireAdmin(signer *session.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(session.AdminCookieName)
		if err := signer.Verify(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

type adminHandler struct {
	cfg AdminConfig
}

func (h *adminHandler) login(c *gin.Context) {
	var req validation.LoginRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}
	if err := h.cfg.Service.Login(req.Password); err != nil {
		writeError(c, err)
		return
	}
	token, exp, err := h.cfg.Signer.Issue()
	if err != nil {
		writeError(c, err)
		return
	}
	cookies(c).set(c, session.AdminCookieName, token, int(h.cfg.Signer.TTL()/time.Second))
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "expires_at": exp.UTC()})
}

func (h *adminHandler) logout(c *gin.Context) {
	h.cfg.Service.Logout()
	cookies(c).set(c, session.AdminCookieName, "", -1)
	if sess := currentSession(c); sess != nil {
		sess.StoreSnapshot(nil, time.Time{})
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

func (h *adminHandler) dashboard(c *gin.Context) {
	sess := ensureSession(c)
	now := h.cfg.NowFunc()
	poll := int(h.cfg.PollInterval / time.Second)

	if cached, ok := sess.Snapshot(now, h.cfg.PollInterval); ok {
		c.JSON(http.StatusOK, dashboardResponse{Dashboard: cached.(*admin.Dashboard), Cached: true, PollAfterSeconds: poll})
		return
	}

	d, err := h.cfg.Service.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	sess.StoreSnapshot(d, now)
	c.JSON(http.StatusOK, dashboardResponse{Dashboard: d, PollAfterSeconds: poll})
}

func (h *adminHandler) list(c *gin.Context) {
	status := orders.Status(c.DefaultQuery("status", string(orders.StatusPending)))
	list, err := h.cfg.Service.List(c.Request.Context(), status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "orders": list})
}

func (h *adminHandler) markDone(c *gin.Context) {
	id := c.Param("id")
	if err := h.cfg.Service.MarkDone(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	// the next dashboard load must show the move
	if sess := currentSession(c); sess != nil {
		sess.StoreSnapshot(nil, time.Time{})
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": orders.StatusDone})
}
