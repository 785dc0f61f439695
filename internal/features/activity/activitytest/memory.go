// Package activitytest — хранилище отметок в памяти для тестов.
package activitytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/activity"
)

type key struct {
	memberID int64
	day      time.Time
}

// Store повторяет поведение activity.Repository: одна запись на (участник, день).
// Err, если задан, возвращается из всех методов.
type Store struct {
	mu      sync.Mutex
	records map[key]activity.Kind
	Err     error
	Lookups int // Сколько раз вызывали Exists
}

func NewStore() *Store {
	return &Store{records: make(map[key]activity.Kind)}
}

// Add отмечает участника в перечисленные дни.
func (s *Store) Add(memberID int64, days ...time.Time) {
	for _, d := range days {
		_, _ = s.PutCheckin(context.Background(), memberID, d, activity.KindDaily)
	}
}

func (s *Store) PutCheckin(_ context.Context, memberID int64, day time.Time, kind activity.Kind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	k := key{memberID, common.Day(day.Date())}
	if _, ok := s.records[k]; ok {
		return false, nil
	}
	s.records[k] = kind
	return true, nil
}

func (s *Store) Exists(_ context.Context, memberID int64, day time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lookups++
	if s.Err != nil {
		return false, s.Err
	}
	_, ok := s.records[key{memberID, common.Day(day.Date())}]
	return ok, nil
}

// ListForUser возвращает отметки участника по возрастанию даты.
func (s *Store) ListForUser(_ context.Context, memberID int64) ([]*activity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*activity.Record
	for k, kind := range s.records {
		if k.memberID == memberID {
			out = append(out, &activity.Record{MemberID: memberID, Day: k.day, Kind: kind})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}
