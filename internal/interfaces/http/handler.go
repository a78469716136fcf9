package http

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"agente_gateway/internal/broadcast"
	"agente_gateway/internal/entities"
	"agente_gateway/internal/infrastructure"
	"agente_gateway/internal/usecases"
)

type Handler struct {
	orchestrator *usecases.Orchestrator
	catalog      *usecases.CatalogResolver
	connection   *infrastructure.Connection
	hub          *broadcast.Hub
	logger       *slog.Logger
}

func NewHandler(orchestrator *usecases.Orchestrator, catalog *usecases.CatalogResolver, connection *infrastructure.Connection, hub *broadcast.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		catalog:      catalog,
		connection:   connection,
		hub:          hub,
		logger:       logger,
	}
}

func SetupRoutes(r *gin.Engine, h *Handler) {
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(10 << 20)) // 10MB max request size
	r.Use(CORSMiddleware())

	r.POST("/webhook/chat", h.HandleChat)

	r.GET("/ws", h.HandleWebSocket)

	api := r.Group("/api")
	{
		api.GET("/whatsapp/qr", h.GetQRImage)
		api.GET("/whatsapp/status", h.GetStatus)

		api.GET("/catalog/brands", h.GetBrands)
		api.GET("/catalog/models", h.GetModels)
		api.GET("/catalog/versions", h.GetVersions)
		api.GET("/catalog/years", h.GetYears)
	}
}

// HandleChat runs one conversation turn for a web or external channel caller.
func (h *Handler) HandleChat(c *gin.Context) {
	var req entities.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Message == "" || req.SessionID == "" || req.ClientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": `Faltan los parámetros "message", "sessionId" o "clientId" en la petición.`})
		return
	}

	reply, err := h.orchestrator.Respond(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// HandleWebSocket upgrades the dashboard connection and hands it to the hub.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // dashboards connect cross-origin
	})
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	h.hub.ServeConn(c.Request.Context(), conn)
}

// GetQRImage renders the pending pairing code as a PNG.
func (h *Handler) GetQRImage(c *gin.Context) {
	code := h.connection.LastQR()
	if code == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No QR code available. Already authenticated or not yet generated."})
		return
	}

	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render QR code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// GetStatus reports the session lifecycle state, identity and retry usage.
func (h *Handler) GetStatus(c *gin.Context) {
	state, number, name := h.connection.Status()
	c.JSON(http.StatusOK, gin.H{
		"connected":  state == entities.StateAuthenticated,
		"state":      state.String(),
		"number":     number,
		"name":       name,
		"retryCount": h.connection.RetryCount(),
	})
}

func (h *Handler) GetBrands(c *gin.Context) {
	result := h.catalog.Brands(c.Request.Context())
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetModels(c *gin.Context) {
	brandID := c.Query("brandId")
	if brandID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brandId is required"})
		return
	}
	result := h.catalog.Models(c.Request.Context(), brandID)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetVersions(c *gin.Context) {
	brandID := c.Query("brandId")
	modelID := c.Query("modelId")
	if brandID == "" || modelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brandId and modelId are required"})
		return
	}
	result := h.catalog.Versions(c.Request.Context(), brandID, modelID, c.Query("yearId"))
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetYears(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entries": h.catalog.Years()})
}
