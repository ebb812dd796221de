package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/quizsync/internal/dto"
	"github.com/lshigami/quizsync/internal/service"
	"github.com/rs/zerolog/log"
)

type QueueController struct {
	queueService service.AdminQueueService
}

func NewQueueController(queueService service.AdminQueueService) *QueueController {
	return &QueueController{queueService: queueService}
}

func (c *QueueController) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/queue", c.GetQueue)
	admin.DELETE("/queue/:lane/:seq", c.DiscardEntry)
}

// GetQueue godoc
// @Summary (Admin) Inspect the mutation queue
// @Description Lists every pending mutation, lane by lane, in replay order. Corrupt entries are listed too.
// @Tags Admin - Queue
// @Produce json
// @Success 200 {object} dto.QueueOverviewDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/queue [get]
func (c *QueueController) GetQueue(ctx *gin.Context) {
	overview, err := c.queueService.QueueOverview(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, overview)
}

// DiscardEntry godoc
// @Summary (Admin) Discard a queued mutation
// @Description Removes one entry the backend will never accept. Later entries of the lane are replayed normally.
// @Tags Admin - Queue
// @Param lane path string true "Lane, e.g. attempt:42 or offlineQuizUpdates"
// @Param seq path int true "Sequence number"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse "Invalid sequence number"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Router /admin/queue/{lane}/{seq} [delete]
func (c *QueueController) DiscardEntry(ctx *gin.Context) {
	seq, err := strconv.ParseUint(ctx.Param("seq"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid sequence number"})
		return
	}
	lane := ctx.Param("lane")
	if err := c.queueService.DiscardEntry(ctx.Request.Context(), lane, seq); err != nil {
		if errors.Is(err, service.ErrQueueEntryNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
			return
		}
		log.Error().Err(err).Str("lane", lane).Uint64("seq", seq).Msg("Admin DiscardEntry: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}
