package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/party-planner-api/internal/dto"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/services"
	"github.com/yukikurage/party-planner-api/internal/utils"
)

type WallHandler struct {
	wallService *services.MessageWallService
}

func NewWallHandler(wallService *services.MessageWallService) *WallHandler {
	return &WallHandler{wallService: wallService}
}

func (h *WallHandler) List(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	posts, total, err := h.wallService.List(actor.Event.ID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"posts": dto.ToWallPostDTOs(posts),
		"pagination": params.Response(total),
	})
}

func (h *WallHandler) Post(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}

	type PostRequest struct {
		PersonID uint64 `json:"person_id"`
		Message  string `json:"message" binding:"required"`
	}
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	post, err := h.wallService.Post(actor, req.PersonID, req.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToWallPostDTOs([]models.MessageWallPost{*post})[0])
}
