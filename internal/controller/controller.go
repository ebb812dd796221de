package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lshigami/quizsync/internal/dto"
	"github.com/lshigami/quizsync/internal/realtime"
	"github.com/lshigami/quizsync/internal/reconcile"
	"github.com/lshigami/quizsync/internal/service"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins for the local UI
	},
}

// SyncController serves connectivity, replay and the status feed.
type SyncController struct {
	syncSvc service.SyncService
	hub     *realtime.Hub
}

func NewSyncController(syncSvc service.SyncService, hub *realtime.Hub) *SyncController {
	return &SyncController{syncSvc: syncSvc, hub: hub}
}

func (ctrl *SyncController) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/sync/status", ctrl.GetStatusHandler)
	api.POST("/sync", ctrl.SyncNowHandler)
	api.POST("/connectivity", ctrl.SetConnectivityHandler)
	api.GET("/ws/status", ctrl.StatusFeedHandler)
}

// GetStatusHandler godoc
// @Summary Connectivity and queue status
// @Tags Sync
// @Produce json
// @Success 200 {object} dto.SyncStatusDTO
// @Router /sync/status [get]
func (ctrl *SyncController) GetStatusHandler(c *gin.Context) {
	status, err := ctrl.syncSvc.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// SyncNowHandler godoc
// @Summary Replay the queue now
// @Description Runs one replay pass and waits for it. Lanes that hit a network failure are left for the next pass.
// @Tags Sync
// @Produce json
// @Success 200 {object} dto.SyncReportDTO
// @Failure 401 {object} dto.SyncReportDTO "Credential refused, the pass stopped"
// @Failure 500 {object} dto.ErrorResponse "Queue unavailable"
// @Router /sync [post]
func (ctrl *SyncController) SyncNowHandler(c *gin.Context) {
	report, err := ctrl.syncSvc.SyncNow(c.Request.Context())
	switch {
	case report == nil:
		log.Error().Err(err).Msg("SyncNowHandler: pass failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	case reconcile.IsAuthFailure(err):
		c.JSON(http.StatusUnauthorized, report)
	default:
		c.JSON(http.StatusOK, report)
	}
}

// SetConnectivityHandler godoc
// @Summary Report an online or offline event
// @Tags Sync
// @Accept json
// @Produce json
// @Param connectivity body dto.ConnectivityDTO true "Connectivity event"
// @Success 200 {object} dto.SyncStatusDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Router /connectivity [post]
func (ctrl *SyncController) SetConnectivityHandler(c *gin.Context) {
	var req dto.ConnectivityDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	status, err := ctrl.syncSvc.SetOnline(c.Request.Context(), *req.Online)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// StatusFeedHandler godoc
// @Summary Websocket feed of status, sync reports and reconciled scores
// @Tags Sync
// @Router /ws/status [get]
func (ctrl *SyncController) StatusFeedHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("StatusFeedHandler: websocket upgrade failed")
		return
	}
	ctrl.hub.RegisterClient(conn)
}
