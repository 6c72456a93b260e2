package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quantifyme/internal/domain"
	"quantifyme/internal/repository"
	"quantifyme/internal/score"
	"quantifyme/internal/service"
)

// RecordHandler mantiene dependencias para endpoints de registros diarios.
type RecordHandler struct {
	logger    *zap.Logger
	recordSvc *service.RecordService
}

// NewRecordHandler crea una instancia de RecordHandler.
func NewRecordHandler(logger *zap.Logger, recordSvc *service.RecordService) *RecordHandler {
	return &RecordHandler{
		logger:    logger,
		recordSvc: recordSvc,
	}
}

type metricsPayload struct {
	Mood       float64 `json:"mood"`
	SleepHours float64 `json:"sleep_hours"`
	Stress     float64 `json:"stress"`
	Focus      float64 `json:"focus"`
}

func (p metricsPayload) toMetrics() score.Metrics {
	return score.Metrics{
		Mood:       p.Mood,
		SleepHours: p.SleepHours,
		Stress:     p.Stress,
		Focus:      p.Focus,
	}
}

// LogDay maneja POST /records.
func (h *RecordHandler) LogDay(c *gin.Context) {
	var req struct {
		UserID   int64          `json:"user_id" binding:"required"`
		Date     string         `json:"date" binding:"required"`
		Metrics  metricsPayload `json:"metrics" binding:"required"`
		Weights  *score.Weights `json:"weights"`
		Annotate bool           `json:"annotate"`
		Strict   bool           `json:"strict"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid log day request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	day, err := domain.ParseDay(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	record, result, err := h.recordSvc.LogDay(c.Request.Context(), service.LogDayInput{
		UserID:   req.UserID,
		Day:      day,
		Metrics:  req.Metrics.toMetrics(),
		Weights:  req.Weights,
		Annotate: req.Annotate,
		Strict:   req.Strict,
	})
	if err != nil {
		var verr *score.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid metrics", "violations": verr.Violations})
		case errors.Is(err, repository.ErrDuplicateRecord):
			c.JSON(http.StatusConflict, gin.H{"error": "record already exists for that day"})
		default:
			h.logger.Error("log day failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not persist record"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"record": record, "result": result})
}

// PreviewScore maneja POST /score/preview. Calcula sin persistir.
func (h *RecordHandler) PreviewScore(c *gin.Context) {
	var req struct {
		Metrics metricsPayload `json:"metrics" binding:"required"`
		Weights *score.Weights `json:"weights"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid preview request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, interpretation, err := h.recordSvc.Preview(c.Request.Context(), req.Metrics.toMetrics(), req.Weights)
	if err != nil {
		var verr *score.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid metrics", "violations": verr.Violations})
			return
		}
		h.logger.Error("preview failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute score"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result, "interpretation": interpretation})
}

// ListRecords maneja GET /records?user_id=&start=&end=&order=.
func (h *RecordHandler) ListRecords(c *gin.Context) {
	userID, ok := h.userIDFromQuery(c)
	if !ok {
		return
	}

	var start, end *domain.Day
	if raw := c.Query("start"); raw != "" {
		d, err := domain.ParseDay(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date"})
			return
		}
		start = &d
	}
	if raw := c.Query("end"); raw != "" {
		d, err := domain.ParseDay(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date"})
			return
		}
		end = &d
	}

	ascending := c.DefaultQuery("order", "asc") != "desc"

	records, err := h.recordSvc.History(c.Request.Context(), userID, start, end, ascending)
	if err != nil {
		h.logger.Error("list records failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

// LastN maneja GET /records/last?user_id=&n=.
func (h *RecordHandler) LastN(c *gin.Context) {
	userID, ok := h.userIDFromQuery(c)
	if !ok {
		return
	}

	n := 7
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid n"})
			return
		}
		n = parsed
	}

	records, err := h.recordSvc.LastN(c.Request.Context(), userID, n)
	if err != nil {
		h.logger.Error("last n failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

// WeeklyAverage maneja GET /records/weekly-average?user_id=&end=.
func (h *RecordHandler) WeeklyAverage(c *gin.Context) {
	userID, ok := h.userIDFromQuery(c)
	if !ok {
		return
	}

	var end *domain.Day
	if raw := c.Query("end"); raw != "" {
		d, err := domain.ParseDay(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date"})
			return
		}
		end = &d
	}

	avg, present, err := h.recordSvc.WeeklyAverage(c.Request.Context(), userID, end)
	if err != nil {
		h.logger.Error("weekly average failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute average"})
		return
	}

	if !present {
		c.JSON(http.StatusOK, gin.H{"average": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"average": avg})
}

// Exists maneja GET /records/:date/exists?user_id=.
func (h *RecordHandler) Exists(c *gin.Context) {
	userID, ok := h.userIDFromQuery(c)
	if !ok {
		return
	}

	day, err := domain.ParseDay(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	exists, err := h.recordSvc.Exists(c.Request.Context(), userID, day)
	if err != nil {
		h.logger.Error("exists check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

// DeleteDay maneja DELETE /records/:date?user_id=.
func (h *RecordHandler) DeleteDay(c *gin.Context) {
	userID, ok := h.userIDFromQuery(c)
	if !ok {
		return
	}

	day, err := domain.ParseDay(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	removed, err := h.recordSvc.DeleteDay(c.Request.Context(), userID, day)
	if err != nil {
		h.logger.Error("delete day failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": removed})
}

func (h *RecordHandler) userIDFromQuery(c *gin.Context) (int64, bool) {
	raw := c.Query("user_id")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return 0, false
	}
	return userID, true
}
