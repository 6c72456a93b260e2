package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"quantifyme/internal/domain"
	"quantifyme/internal/observability"
	"quantifyme/internal/repository"
	"quantifyme/internal/score"
)

// RecordService coordina el flujo de una jornada: validar y calcular el
// score, generar la anotacion opcional y persistir el registro.
type RecordService struct {
	engine  *score.Engine
	records repository.RecordRepository
	interp  *InterpretationService
	logger  *zap.Logger
}

func NewRecordService(engine *score.Engine, records repository.RecordRepository, interp *InterpretationService, logger *zap.Logger) *RecordService {
	return &RecordService{
		engine:  engine,
		records: records,
		interp:  interp,
		logger:  logger,
	}
}

// LogDayInput son los parametros de alto nivel para registrar una jornada.
type LogDayInput struct {
	UserID  int64
	Day     domain.Day
	Metrics score.Metrics
	// Weights nil usa el set canonico.
	Weights *score.Weights
	// Annotate pide una anotacion al colaborador de interpretacion.
	Annotate bool
	// Strict usa Add en lugar de Upsert: falla si el dia ya tiene registro.
	Strict bool
}

// LogDay calcula el score de la jornada y persiste el registro. Una falla de
// validacion se devuelve sin tocar el store.
func (s *RecordService) LogDay(ctx context.Context, input LogDayInput) (domain.Record, score.Result, error) {
	result, err := s.computeScore(input.Metrics, input.Weights)
	if err != nil {
		return domain.Record{}, score.Result{}, err
	}

	recInput := repository.RecordInput{
		Mood:       input.Metrics.Mood,
		SleepHours: input.Metrics.SleepHours,
		Stress:     input.Metrics.Stress,
		Focus:      input.Metrics.Focus,
		Score:      result.Score,
	}

	if input.Annotate && s.interp != nil {
		recInput.Annotation = s.interp.GenerateAnnotation(ctx, annotationKey(input.UserID), result.Score, input.Metrics)
	}

	var record domain.Record
	if input.Strict {
		record, err = s.records.Add(ctx, input.UserID, input.Day, recInput)
	} else {
		record, err = s.records.Upsert(ctx, input.UserID, input.Day, recInput)
	}
	if err != nil {
		return domain.Record{}, score.Result{}, err
	}

	observability.RecordPersisted(record.CreatedAt)
	if s.logger != nil {
		s.logger.Info("daily record persisted",
			zap.Int64("user_id", record.UserID),
			zap.String("day", record.Day.String()),
			zap.Float64("score", record.Score),
		)
	}
	return record, result, nil
}

// Preview calcula score e interpretacion de tramo sin persistir nada.
func (s *RecordService) Preview(ctx context.Context, m score.Metrics, weights *score.Weights) (score.Result, string, error) {
	result, err := s.computeScore(m, weights)
	if err != nil {
		return score.Result{}, "", err
	}
	return result, score.Interpret(result.Score), nil
}

// History devuelve los registros del usuario en [start, end], inclusive.
func (s *RecordService) History(ctx context.Context, userID int64, start, end *domain.Day, ascending bool) ([]domain.Record, error) {
	return s.records.GetRange(ctx, userID, start, end, ascending)
}

// LastN devuelve los n registros mas recientes en orden cronologico.
func (s *RecordService) LastN(ctx context.Context, userID int64, n int) ([]domain.Record, error) {
	return s.records.LastN(ctx, userID, n)
}

// WeeklyAverage promedia el score de los 7 dias que terminan en end.
// end nil usa el dia de hoy. ok=false cuando la ventana esta vacia.
func (s *RecordService) WeeklyAverage(ctx context.Context, userID int64, end *domain.Day) (float64, bool, error) {
	endDay := domain.Today()
	if end != nil {
		endDay = *end
	}
	return s.records.WeeklyAverage(ctx, userID, endDay)
}

// DeleteDay elimina el registro del dia; false si no existia.
func (s *RecordService) DeleteDay(ctx context.Context, userID int64, day domain.Day) (bool, error) {
	return s.records.Delete(ctx, userID, day)
}

// Exists consulta si el dia ya tiene registro.
func (s *RecordService) Exists(ctx context.Context, userID int64, day domain.Day) (bool, error) {
	return s.records.Exists(ctx, userID, day)
}

func (s *RecordService) computeScore(m score.Metrics, weights *score.Weights) (score.Result, error) {
	var (
		result score.Result
		err    error
	)
	if weights != nil {
		result, err = s.engine.ComputeWithWeights(m, *weights)
	} else {
		result, err = s.engine.Compute(m)
	}
	if err != nil {
		return score.Result{}, err
	}
	observability.RecordScoreComputed()
	return result, nil
}

func annotationKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}
