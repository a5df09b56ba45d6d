// Package gateway is the HTTP face of the storefront. The chat glue
// parses inbound messages, forwards each command here with the
// actor's identity in headers, and renders the JSON responses back
// into chat messages.
package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/shopbot/pkg/access"
	"github.com/example/shopbot/pkg/config"
	"github.com/example/shopbot/pkg/shop"
)

type Gateway struct {
	config *config.Config
	engine *shop.Engine
	logger *zap.Logger
	router *gin.Engine
}

func NewGateway(cfg *config.Config, engine *shop.Engine, logger *zap.Logger) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Gateway{
		config: cfg,
		engine: engine,
		logger: logger,
		router: router,
	}
}

func (g *Gateway) SetupRoutes() {
	// Health check
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := g.router.Group("/api/v1")
	{
		items := v1.Group("/items")
		{
			items.GET("", g.listItems)
			items.POST("", g.addItem)
			items.PUT("/:id/stock", g.updateItemStock)
			items.DELETE("/:id", g.removeItem)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", g.createOrder)
			orders.GET("", g.listMyOrders)
			orders.GET("/pending", g.listPendingOrders)
			orders.GET("/:id", g.getOrder)
			orders.POST("/:id/confirm-payment", g.confirmPayment)
			orders.POST("/:id/deliver", g.markDelivered)
			orders.POST("/:id/cancel", g.cancelOrder)
			orders.GET("/:id/audit", g.orderAuditTrail)
		}

		v1.POST("/confirm", g.submitKey)

		bans := v1.Group("/bans")
		{
			bans.POST("", g.banUser)
			bans.DELETE("/:user_id", g.unbanUser)
		}
	}
}

func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.Server.Host, g.config.Server.Port)
	g.logger.Info("Gateway starting", zap.String("address", addr))
	return g.router.Run(addr)
}

// Router is exposed for tests.
func (g *Gateway) Router() http.Handler {
	return g.router
}

// actor rebuilds the chat-side actor identity from headers the glue
// sets on every request. A request without a parseable user id is
// rejected outright: user 0 is nobody, and letting it through would
// hand ownership checks a fabricated identity.
func (g *Gateway) actor(c *gin.Context) (access.Actor, bool) {
	userID, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid X-User-ID header"})
		return access.Actor{}, false
	}

	var roles []string
	if raw := c.GetHeader("X-Role-IDs"); raw != "" {
		roles = strings.Split(raw, ",")
	}

	return access.Actor{
		UserID:        userID,
		GuildID:       c.GetHeader("X-Guild-ID"),
		RoleIDs:       roles,
		PlatformAdmin: c.GetHeader("X-Platform-Admin") == "true",
	}, true
}

func (g *Gateway) listItems(c *gin.Context) {
	items, err := g.engine.ListItems(c.Request.Context())
	if err != nil {
		g.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (g *Gateway) addItem(c *gin.Context) {
	var req struct {
		Name        string  `json:"name" binding:"required"`
		Price       float64 `json:"price"`
		Stock       int     `json:"stock"`
		Description string  `json:"description"`
		DriveLink   string  `json:"drive_link"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := g.actor(c)
	if !ok {
		return
	}

	item, err := g.engine.AddItem(c.Request.Context(), actor, req.Name, req.Price, req.Stock, req.Description, req.DriveLink)
	if err != nil {
		g.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (g *Gateway) updateItemStock(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	var req struct {
		Stock int `json:"stock"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := g.actor(c)
	if !ok {
		return
	}

	if err := g.engine.UpdateItemStock(c.Request.Context(), actor, id, req.Stock); err != nil {
		g.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) removeItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	actor, ok := g.actor(c)
	if !ok {
		return
	}

	if err := g.engine.RemoveItem(c.Request.Context(), actor, id); err != nil {
		g.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) createOrder(c *gin.Context) {
	var req struct {
		ItemID   int64 `json:"item_id" binding:"required"`
		Quantity int   `json:"quantity" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := g.actor(c)
	if !ok {
		return
	}

	order, err := g.engine.CreateOrder(c.Request.Context(), actor.UserID, req.ItemID, req.Quantity)
	if err != nil {
		g.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":           order,
		"payment_address": g.config.Shop.PaymentAddress,
	})
}

func (g *Gateway) getOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := g.engine.GetOrder(c.Request.Context(), id)
	if err != nil {
		g.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) listMyOrders(c *gin.Context) {
	actor, ok := g.actor(c)
	if !ok {
		return
	}

	orders, err := g.engine.ListUserOrders(c.Request.Context(), actor.UserID)
	if err != nil {
		g.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (g *Gateway) listPendingOrders(c *gin.Context) {
	actor, ok := g.actor(c)
	if !ok {
		return
	}

	orders, err := g.engine.ListPendingOrders(c.Request.Context(), actor)
	if err != nil {
		g.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (g *Gateway) confirmPayment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	actor, ok := g.actor(c)
	if !ok {
		return
	}

	order, err := g.engine.ConfirmPayment(c.Request.Context(), id, actor)
	if err != nil {
		g.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) markDelivered(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	actor, ok := g.actor(c)
	if !ok {
		return
	}

	order, err := g.engine.MarkDelivered(c.Request.Context(), id, actor)
	if err != nil {
		g.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) cancelOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	actor, ok := g.actor(c)
	if !ok {
		return
	}

	order, err := g.engine.CancelOrder(c.Request.Context(), id, actor)
	if err != nil {
		g.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) orderAuditTrail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	actor, ok := g.actor(c)
	if !ok {
		return
	}

	logs, err := g.engine.OrderAuditTrail(c.Request.Context(), id, actor)
	if err != nil {
		g.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": logs})
}

func (g *Gateway) submitKey(c *gin.Context) {
	var req struct {
		Key string `json:"key" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := g.actor(c)
	if !ok {
		return
	}

	order, err := g.engine.SubmitConfirmationKey(c.Request.Context(), actor.UserID, strings.ToUpper(strings.TrimSpace(req.Key)))
	if err != nil {
		g.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":   order,
		"message": "Confirmation key received. An administrator will verify your payment shortly.",
	})
}

func (g *Gateway) banUser(c *gin.Context) {
	var req struct {
		UserID int64  `json:"user_id" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := g.actor(c)
	if !ok {
		return
	}

	if err := g.engine.BanUser(c.Request.Context(), req.UserID, req.Reason, actor); err != nil {
		g.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) unbanUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	actor, ok := g.actor(c)
	if !ok {
		return
	}

	if err := g.engine.UnbanUser(c.Request.Context(), userID, actor); err != nil {
		g.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// renderError translates engine error kinds to HTTP responses. Store
// internals are logged, never shown to callers.
func (g *Gateway) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shop.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "you don't have permission to do that"})
	case errors.Is(err, shop.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, shop.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "the order is not in a valid state for this action"})
	case errors.Is(err, shop.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": "not enough stock for this order"})
	case errors.Is(err, shop.ErrBanned):
		c.JSON(http.StatusForbidden, gin.H{"error": "you are banned from the shop"})
	case errors.Is(err, shop.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": "one of the values you provided isn't valid"})
	default:
		g.logger.Error("Internal error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, please try again later"})
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
