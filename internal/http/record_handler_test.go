package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quantifyme/internal/repository"
	"quantifyme/internal/score"
	"quantifyme/internal/service"
)

func setupRecordRouter() (*gin.Engine, *repository.MemoryRecordRepository) {
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryRecordRepository()
	engine := score.NewEngine(score.DefaultMaxSleepHours, score.DefaultRoundingDigits, true)
	svc := service.NewRecordService(engine, repo, nil, zap.NewNop())
	h := NewRecordHandler(zap.NewNop(), svc)

	r := gin.New()
	r.POST("/records", h.LogDay)
	r.GET("/records", h.ListRecords)
	r.GET("/records/last", h.LastN)
	r.GET("/records/weekly-average", h.WeeklyAverage)
	r.GET("/records/:date/exists", h.Exists)
	r.DELETE("/records/:date", h.DeleteDay)
	r.POST("/score/preview", h.PreviewScore)
	return r, repo
}

func logDayBody(date string, mood, sleep, stress, focus float64) map[string]any {
	return map[string]any{
		"user_id": 1,
		"date":    date,
		"metrics": map[string]float64{
			"mood":        mood,
			"sleep_hours": sleep,
			"stress":      stress,
			"focus":       focus,
		},
	}
}

func TestRecordHandlerLogDay_Success(t *testing.T) {
	r, _ := setupRecordRouter()

	rec := performRequest(r, http.MethodPost, "/records", logDayBody("2024-03-01", 7, 6.5, 3, 7.5))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Record struct {
			ID    string  `json:"id"`
			Day   string  `json:"date"`
			Score float64 `json:"score"`
		} `json:"record"`
		Result struct {
			Score float64 `json:"score"`
			Raw   float64 `json:"raw"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected body: %v", err)
	}
	if resp.Record.ID == "" || resp.Record.Day != "2024-03-01" {
		t.Fatalf("unexpected record payload: %+v", resp.Record)
	}
	if resp.Result.Score != 5.1 {
		t.Fatalf("expected score 5.1, got %g", resp.Result.Score)
	}
}

func TestRecordHandlerLogDay_InvalidMetrics(t *testing.T) {
	r, _ := setupRecordRouter()

	rec := performRequest(r, http.MethodPost, "/records", logDayBody("2024-03-01", 11, -1, 3, 7))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var resp struct {
		Violations []score.Violation `json:"violations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected body: %v", err)
	}
	if len(resp.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(resp.Violations))
	}
}

func TestRecordHandlerLogDay_InvalidDate(t *testing.T) {
	r, _ := setupRecordRouter()

	rec := performRequest(r, http.MethodPost, "/records", logDayBody("01/03/2024", 7, 6.5, 3, 7.5))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestRecordHandlerLogDay_StrictConflict(t *testing.T) {
	r, _ := setupRecordRouter()

	body := logDayBody("2024-03-01", 7, 6.5, 3, 7.5)
	body["strict"] = true
	if rec := performRequest(r, http.MethodPost, "/records", body); rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if rec := performRequest(r, http.MethodPost, "/records", body); rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestRecordHandlerLogDay_UpsertOverwrites(t *testing.T) {
	r, repo := setupRecordRouter()

	if rec := performRequest(r, http.MethodPost, "/records", logDayBody("2024-03-01", 5, 7, 5, 5)); rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if rec := performRequest(r, http.MethodPost, "/records", logDayBody("2024-03-01", 7, 6.5, 3, 7.5)); rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	records, err := repo.GetRange(context.Background(), 1, nil, nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after upsert, got %d", len(records))
	}
	if records[0].Score != 5.1 {
		t.Fatalf("expected overwritten score 5.1, got %g", records[0].Score)
	}
}

func TestRecordHandlerListRecords(t *testing.T) {
	r, _ := setupRecordRouter()

	for day := 1; day <= 3; day++ {
		body := logDayBody(fmt.Sprintf("2024-03-0%d", day), 5, 7, 5, 5)
		if rec := performRequest(r, http.MethodPost, "/records", body); rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", rec.Code)
		}
	}

	rec := performRequest(r, http.MethodGet, "/records?user_id=1&start=2024-03-02&order=desc", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp struct {
		Records []struct {
			Day string `json:"date"`
		} `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected body: %v", err)
	}
	if len(resp.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(resp.Records))
	}
	if resp.Records[0].Day != "2024-03-03" || resp.Records[1].Day != "2024-03-02" {
		t.Fatalf("expected descending order, got %+v", resp.Records)
	}
}

func TestRecordHandlerListRecords_MissingUserID(t *testing.T) {
	r, _ := setupRecordRouter()

	rec := performRequest(r, http.MethodGet, "/records", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestRecordHandlerLastN(t *testing.T) {
	r, _ := setupRecordRouter()

	for day := 1; day <= 5; day++ {
		body := logDayBody(fmt.Sprintf("2024-03-0%d", day), 5, 7, 5, 5)
		if rec := performRequest(r, http.MethodPost, "/records", body); rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", rec.Code)
		}
	}

	rec := performRequest(r, http.MethodGet, "/records/last?user_id=1&n=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp struct {
		Records []struct {
			Day string `json:"date"`
		} `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected body: %v", err)
	}
	if len(resp.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(resp.Records))
	}
	if resp.Records[0].Day != "2024-03-04" || resp.Records[1].Day != "2024-03-05" {
		t.Fatalf("expected last two days ascending, got %+v", resp.Records)
	}
}

func TestRecordHandlerWeeklyAverage(t *testing.T) {
	r, _ := setupRecordRouter()

	scores := []struct {
		date  string
		focus float64
	}{
		{"2024-03-01", 2.5},
		{"2024-03-02", 5.0},
		{"2024-03-03", 7.5},
	}
	for _, s := range scores {
		body := logDayBody(s.date, 5, 7, 5, s.focus)
		if rec := performRequest(r, http.MethodPost, "/records", body); rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", rec.Code)
		}
	}

	rec := performRequest(r, http.MethodGet, "/records/weekly-average?user_id=1&end=2024-03-03", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp struct {
		Average *float64 `json:"average"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected body: %v", err)
	}
	if resp.Average == nil {
		t.Fatalf("expected an average, got null")
	}

	rec = performRequest(r, http.MethodGet, "/records/weekly-average?user_id=99&end=2024-03-03", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	resp.Average = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected body: %v", err)
	}
	if resp.Average != nil {
		t.Fatalf("expected null average for empty window, got %g", *resp.Average)
	}
}

func TestRecordHandlerExistsAndDelete(t *testing.T) {
	r, _ := setupRecordRouter()

	if rec := performRequest(r, http.MethodPost, "/records", logDayBody("2024-03-01", 5, 7, 5, 5)); rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	rec := performRequest(r, http.MethodGet, "/records/2024-03-01/exists?user_id=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var existsResp struct {
		Exists bool `json:"exists"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &existsResp)
	if !existsResp.Exists {
		t.Fatalf("expected record to exist")
	}

	rec = performRequest(r, http.MethodDelete, "/records/2024-03-01?user_id=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var delResp struct {
		Deleted bool `json:"deleted"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &delResp)
	if !delResp.Deleted {
		t.Fatalf("expected deleted true")
	}

	rec = performRequest(r, http.MethodDelete, "/records/2024-03-01?user_id=1", nil)
	_ = json.Unmarshal(rec.Body.Bytes(), &delResp)
	if delResp.Deleted {
		t.Fatalf("expected deleted false on second delete")
	}

	rec = performRequest(r, http.MethodGet, "/records/2024-03-01/exists?user_id=1", nil)
	existsResp.Exists = true
	_ = json.Unmarshal(rec.Body.Bytes(), &existsResp)
	if existsResp.Exists {
		t.Fatalf("expected record to be gone")
	}
}

func TestRecordHandlerPreviewScore(t *testing.T) {
	r, repo := setupRecordRouter()

	body := map[string]any{
		"metrics": map[string]float64{
			"mood":        7,
			"sleep_hours": 6.5,
			"stress":      3,
			"focus":       7.5,
		},
	}
	rec := performRequest(r, http.MethodPost, "/score/preview", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Result struct {
			Score float64 `json:"score"`
		} `json:"result"`
		Interpretation string `json:"interpretation"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected body: %v", err)
	}
	if resp.Result.Score != 5.1 {
		t.Fatalf("expected score 5.1, got %g", resp.Result.Score)
	}
	if resp.Interpretation == "" {
		t.Fatalf("expected an interpretation")
	}

	records, err := repo.GetRange(context.Background(), 1, nil, nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("preview should not persist, found %d records", len(records))
	}
}
