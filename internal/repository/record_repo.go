package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"quantifyme/internal/domain"
)

// ErrDuplicateRecord indica que ya existe un registro para ese (usuario, dia).
var ErrDuplicateRecord = errors.New("record already exists for that day")

// RecordInput son los campos mutables de un registro diario.
type RecordInput struct {
	Mood       float64
	SleepHours float64
	Stress     float64
	Focus      float64
	Score      float64
	Annotation string
}

// RecordRepository define el contrato de persistencia para registros diarios.
// Garantiza como maximo un registro por (usuario, dia), incluso bajo
// escrituras concurrentes.
type RecordRepository interface {
	// Upsert inserta o reemplaza el registro del dia, conservando id y
	// created_at del registro existente.
	Upsert(ctx context.Context, userID int64, day domain.Day, input RecordInput) (domain.Record, error)
	// Add inserta y falla con ErrDuplicateRecord si el dia ya tiene registro.
	Add(ctx context.Context, userID int64, day domain.Day, input RecordInput) (domain.Record, error)
	// GetRange devuelve los registros con dia en [start, end] inclusive,
	// ordenados por dia. Bordes nil = sin limite por ese lado.
	GetRange(ctx context.Context, userID int64, start, end *domain.Day, ascending bool) ([]domain.Record, error)
	// LastN devuelve los n registros mas recientes en orden cronologico
	// ascendente; menos de n si no hay suficientes.
	LastN(ctx context.Context, userID int64, n int) ([]domain.Record, error)
	// Delete elimina el registro del dia; false si no existia.
	Delete(ctx context.Context, userID int64, day domain.Day) (bool, error)
	Exists(ctx context.Context, userID int64, day domain.Day) (bool, error)
	// WeeklyAverage promedia el score de la ventana de 7 dias que termina en
	// end, inclusive. ok=false cuando la ventana no tiene registros.
	WeeklyAverage(ctx context.Context, userID int64, end domain.Day) (avg float64, ok bool, err error)
}

// PgRecordRepository implementa RecordRepository usando pgxpool.
type PgRecordRepository struct {
	pool *pgxpool.Pool
}

func NewPgRecordRepository(pool *pgxpool.Pool) *PgRecordRepository {
	return &PgRecordRepository{pool: pool}
}

const recordColumns = `id, user_id, day, mood, sleep_hours, stress, focus, score, annotation, created_at`

// upsertAttempts acota los reintentos ante contencion por la clave unica.
const upsertAttempts = 3

func (r *PgRecordRepository) Upsert(ctx context.Context, userID int64, day domain.Day, input RecordInput) (domain.Record, error) {
	const query = `
		INSERT INTO daily_records (id, user_id, day, mood, sleep_hours, stress, focus, score, annotation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, day) DO UPDATE SET
			mood = EXCLUDED.mood,
			sleep_hours = EXCLUDED.sleep_hours,
			stress = EXCLUDED.stress,
			focus = EXCLUDED.focus,
			score = EXCLUDED.score,
			annotation = EXCLUDED.annotation
		RETURNING id, created_at
	`

	record := newRecord(userID, day, input)

	var lastErr error
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		err := r.pool.QueryRow(ctx, query,
			record.ID,
			record.UserID,
			record.Day.Time(),
			record.Mood,
			record.SleepHours,
			record.Stress,
			record.Focus,
			record.Score,
			nullIfEmpty(record.Annotation),
			record.CreatedAt,
		).Scan(&record.ID, &record.CreatedAt)
		if err == nil {
			return record, nil
		}
		if !isRetryableWrite(err) {
			return domain.Record{}, err
		}
		lastErr = err
	}
	return domain.Record{}, lastErr
}

func (r *PgRecordRepository) Add(ctx context.Context, userID int64, day domain.Day, input RecordInput) (domain.Record, error) {
	const query = `
		INSERT INTO daily_records (id, user_id, day, mood, sleep_hours, stress, focus, score, annotation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	record := newRecord(userID, day, input)

	err := r.pool.QueryRow(ctx, query,
		record.ID,
		record.UserID,
		record.Day.Time(),
		record.Mood,
		record.SleepHours,
		record.Stress,
		record.Focus,
		record.Score,
		nullIfEmpty(record.Annotation),
		record.CreatedAt,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Record{}, ErrDuplicateRecord
		}
		return domain.Record{}, err
	}
	return record, nil
}

func (r *PgRecordRepository) GetRange(ctx context.Context, userID int64, start, end *domain.Day, ascending bool) ([]domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM daily_records WHERE user_id = $1`
	args := []interface{}{userID}

	if start != nil {
		args = append(args, start.Time())
		query += ` AND day >= $2`
	}
	if end != nil {
		args = append(args, end.Time())
		if start != nil {
			query += ` AND day <= $3`
		} else {
			query += ` AND day <= $2`
		}
	}

	if ascending {
		query += ` ORDER BY day ASC, id ASC`
	} else {
		query += ` ORDER BY day DESC, id ASC`
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *PgRecordRepository) LastN(ctx context.Context, userID int64, n int) ([]domain.Record, error) {
	if n <= 0 {
		return []domain.Record{}, nil
	}

	const query = `
		SELECT ` + recordColumns + `
		FROM daily_records
		WHERE user_id = $1
		ORDER BY day DESC, id ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	// Se seleccionan los mas recientes primero; el caller siempre recibe
	// orden cronologico.
	reverse(records)
	return records, nil
}

func (r *PgRecordRepository) Delete(ctx context.Context, userID int64, day domain.Day) (bool, error) {
	const query = `DELETE FROM daily_records WHERE user_id = $1 AND day = $2`
	tag, err := r.pool.Exec(ctx, query, userID, day.Time())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgRecordRepository) Exists(ctx context.Context, userID int64, day domain.Day) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM daily_records WHERE user_id = $1 AND day = $2)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, userID, day.Time()).Scan(&exists)
	return exists, err
}

func (r *PgRecordRepository) WeeklyAverage(ctx context.Context, userID int64, end domain.Day) (float64, bool, error) {
	const query = `
		SELECT AVG(score)
		FROM daily_records
		WHERE user_id = $1 AND day >= $2 AND day <= $3
	`
	start := end.AddDays(-6)

	var avg *float64
	err := r.pool.QueryRow(ctx, query, userID, start.Time(), end.Time()).Scan(&avg)
	if err != nil {
		return 0, false, err
	}
	if avg == nil {
		return 0, false, nil
	}
	return *avg, true, nil
}

func newRecord(userID int64, day domain.Day, input RecordInput) domain.Record {
	return domain.Record{
		ID:         uuid.NewString(),
		UserID:     userID,
		Day:        day,
		Mood:       input.Mood,
		SleepHours: input.SleepHours,
		Stress:     input.Stress,
		Focus:      input.Focus,
		Score:      input.Score,
		Annotation: input.Annotation,
		CreatedAt:  time.Now().UTC(),
	}
}

func scanRecords(rows pgx.Rows) ([]domain.Record, error) {
	records := make([]domain.Record, 0)
	for rows.Next() {
		var (
			rec        domain.Record
			day        time.Time
			annotation *string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&day,
			&rec.Mood,
			&rec.SleepHours,
			&rec.Stress,
			&rec.Focus,
			&rec.Score,
			&annotation,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.Day = domain.DayOf(day)
		if annotation != nil {
			rec.Annotation = *annotation
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// isRetryableWrite reconoce contencion transitoria sobre la clave unica:
// aborts por serializacion, deadlocks y la carrera documentada del upsert.
func isRetryableWrite(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "23505":
		return true
	default:
		return false
	}
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func reverse(records []domain.Record) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
}
