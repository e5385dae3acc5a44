package httpapi

import (
	"net/http"

	"relay-policyd/pkg/errutil"
	"relay-policyd/pkg/middleware"
	"relay-policyd/pkg/nostr"
	"relay-policyd/services/admin"
	"relay-policyd/services/authz"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Provide(ProvideRouter),
)

type Handler struct {
	admin *admin.Service
	authz *authz.Service
}

type HandlerParams struct {
	fx.In
	Admin *admin.Service
	Authz *authz.Service
}

// ProvideRouter exposes the two contracted entry points plus a health
// probe. Everything else about transport stays out of this subsystem.
func ProvideRouter(p HandlerParams) http.Handler {
	h := &Handler{admin: p.Admin, authz: p.Authz}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Error())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/sconfig/relays/:id/acl", h.handleACL)
	api.GET("/authorization", h.handleAuthorization)

	return r
}

type aclRequest struct {
	Command string   `json:"command"`
	Params  []string `json:"params"`
}

func (h *Handler) handleACL(c *gin.Context) {
	var body aclRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	resp, err := h.admin.Dispatch(c.Request.Context(), admin.Request{
		RelayID:    c.Param("id"),
		Credential: c.GetHeader("Authorization"),
		Method:     c.Request.Method,
		URL:        c.Request.URL.String(),
		Command:    body.Command,
		Params:     body.Params,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) handleAuthorization(c *gin.Context) {
	hostname := c.Query("hostname")
	pubkey := c.Query("pubkey")
	if hostname == "" || pubkey == "" {
		_ = c.Error(errutil.ValidationFailed("hostname and pubkey are required"))
		return
	}
	if !nostr.IsValidPubkey(pubkey) {
		_ = c.Error(errutil.ValidationFailed("pubkey must be exactly 64 lowercase hex characters"))
		return
	}

	verdict, err := h.authz.CheckWrite(c.Request.Context(), hostname, pubkey)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": verdict})
}
