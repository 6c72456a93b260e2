package repository

import (
	"context"
	"sort"
	"sync"

	"quantifyme/internal/domain"
)

// MemoryRecordRepository implementa RecordRepository en memoria, para tests
// y desarrollo local. Las escrituras se serializan con un mutex, asi que la
// unicidad por (usuario, dia) se sostiene bajo llamadas concurrentes.
type MemoryRecordRepository struct {
	mu      sync.RWMutex
	records map[int64]map[string]domain.Record
}

func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{
		records: make(map[int64]map[string]domain.Record),
	}
}

func (r *MemoryRecordRepository) Upsert(ctx context.Context, userID int64, day domain.Day, input RecordInput) (domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byDay := r.records[userID]
	if byDay == nil {
		byDay = make(map[string]domain.Record)
		r.records[userID] = byDay
	}

	record := newRecord(userID, day, input)
	if existing, ok := byDay[day.String()]; ok {
		// Se conserva la identidad del registro; solo cambian los campos
		// mutables.
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	}
	byDay[day.String()] = record
	return record, nil
}

func (r *MemoryRecordRepository) Add(ctx context.Context, userID int64, day domain.Day, input RecordInput) (domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byDay := r.records[userID]
	if byDay == nil {
		byDay = make(map[string]domain.Record)
		r.records[userID] = byDay
	}

	if _, ok := byDay[day.String()]; ok {
		return domain.Record{}, ErrDuplicateRecord
	}

	record := newRecord(userID, day, input)
	byDay[day.String()] = record
	return record, nil
}

func (r *MemoryRecordRepository) GetRange(ctx context.Context, userID int64, start, end *domain.Day, ascending bool) ([]domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]domain.Record, 0)
	for _, rec := range r.records[userID] {
		if start != nil && rec.Day.Before(*start) {
			continue
		}
		if end != nil && rec.Day.After(*end) {
			continue
		}
		records = append(records, rec)
	}
	sortRecords(records, ascending)
	return records, nil
}

func (r *MemoryRecordRepository) LastN(ctx context.Context, userID int64, n int) ([]domain.Record, error) {
	if n <= 0 {
		return []domain.Record{}, nil
	}

	r.mu.RLock()
	records := make([]domain.Record, 0, len(r.records[userID]))
	for _, rec := range r.records[userID] {
		records = append(records, rec)
	}
	r.mu.RUnlock()

	sortRecords(records, false)
	if len(records) > n {
		records = records[:n]
	}
	reverse(records)
	return records, nil
}

func (r *MemoryRecordRepository) Delete(ctx context.Context, userID int64, day domain.Day) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byDay := r.records[userID]
	if _, ok := byDay[day.String()]; !ok {
		return false, nil
	}
	delete(byDay, day.String())
	return true, nil
}

func (r *MemoryRecordRepository) Exists(ctx context.Context, userID int64, day domain.Day) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.records[userID][day.String()]
	return ok, nil
}

func (r *MemoryRecordRepository) WeeklyAverage(ctx context.Context, userID int64, end domain.Day) (float64, bool, error) {
	start := end.AddDays(-6)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum float64
	var count int
	for _, rec := range r.records[userID] {
		if rec.Day.Before(start) || rec.Day.After(end) {
			continue
		}
		sum += rec.Score
		count++
	}
	if count == 0 {
		return 0, false, nil
	}
	return sum / float64(count), true, nil
}

func sortRecords(records []domain.Record, ascending bool) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Day.Equal(records[j].Day) {
			if ascending {
				return records[i].Day.Before(records[j].Day)
			}
			return records[i].Day.After(records[j].Day)
		}
		return records[i].ID < records[j].ID
	})
}
