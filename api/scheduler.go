package api

import (
	"net/http"
	"strconv"

	"github.com/avoronova/flatbook/internal/service/scheduler"
	"github.com/gin-gonic/gin"
)

type SchedulerHandler struct {
	service scheduler.SchedulerUseCase
}

type stayWindowResponse struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Score float64 `json:"score"`
}

func NewSchedulerHandler(service scheduler.SchedulerUseCase) *SchedulerHandler {
	return &SchedulerHandler{service: service}
}

func (h *SchedulerHandler) Register(router *gin.RouterGroup) {
	router.GET("/availability", h.availability)
	router.POST("/auto-assign", h.autoAssign)
	router.GET("/best-dates", h.bestDates)
}

func (h *SchedulerHandler) availability(c *gin.Context) {
	start, err := parseInstant(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be an RFC3339 timestamp or YYYY-MM-DD date"})
		return
	}
	end, err := parseInstant(c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be an RFC3339 timestamp or YYYY-MM-DD date"})
		return
	}

	free, err := h.service.Availability(c.Request.Context(), start, end)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]apartmentResponse, 0, len(free))
	for i := range free {
		resp = append(resp, toApartmentResponse(&free[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SchedulerHandler) autoAssign(c *gin.Context) {
	result, err := h.service.AutoAssign(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SchedulerHandler) bestDates(c *gin.Context) {
	from, err := parseInstant(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be an RFC3339 timestamp or YYYY-MM-DD date"})
		return
	}
	days := queryInt(c, "days", 30)
	nights := queryInt(c, "nights", 2)
	limit := queryInt(c, "limit", 10)

	windows, err := h.service.BestDates(c.Request.Context(), from, days, nights, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]stayWindowResponse, 0, len(windows))
	for _, w := range windows {
		resp = append(resp, stayWindowResponse{
			Start: w.Start.Format(dateFormat),
			End:   w.End.Format(dateFormat),
			Score: w.Score,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
