package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nutridive/nutridive/pkg/apperrors"
	"github.com/nutridive/nutridive/pkg/models"
)

// MemoryAnalysisStore is an in-process AnalysisStore. Records are lost on restart.
type MemoryAnalysisStore struct {
	mu        sync.RWMutex
	byBarcode map[string]*models.AnalysisRecord
	// scans maps user -> barcode -> scan sequence; higher is more recent.
	scans   map[string]map[string]int64
	scanSeq int64
}

var _ AnalysisStore = (*MemoryAnalysisStore)(nil)

// NewMemoryAnalysisStore creates an empty in-memory store.
func NewMemoryAnalysisStore() *MemoryAnalysisStore {
	return &MemoryAnalysisStore{
		byBarcode: make(map[string]*models.AnalysisRecord),
		scans:     make(map[string]map[string]int64),
	}
}

func (s *MemoryAnalysisStore) Get(_ context.Context, barcode string) (*models.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byBarcode[barcode], nil
}

func (s *MemoryAnalysisStore) Put(_ context.Context, record *models.AnalysisRecord) (*models.AnalysisRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byBarcode[record.Barcode]; ok {
		return existing, false, nil
	}
	s.byBarcode[record.Barcode] = record
	return record, true, nil
}

func (s *MemoryAnalysisStore) DeleteByID(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for barcode, rec := range s.byBarcode {
		if rec.ID == id {
			delete(s.byBarcode, barcode)
			for _, scanned := range s.scans {
				delete(scanned, barcode)
			}
			return nil
		}
	}
	return apperrors.NotFoundf("analysis %s not found", id)
}

func (s *MemoryAnalysisStore) RecordScan(_ context.Context, userID, barcode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byBarcode[barcode]; !ok {
		return nil
	}
	scanned, ok := s.scans[userID]
	if !ok {
		scanned = make(map[string]int64)
		s.scans[userID] = scanned
	}
	s.scanSeq++
	scanned[barcode] = s.scanSeq
	return nil
}

func (s *MemoryAnalysisStore) List(_ context.Context, limit int, userID string) ([]models.AnalysisSummary, error) {
	if userID != "" {
		return s.listScanned(limit, userID), nil
	}

	s.mu.RLock()
	records := make([]*models.AnalysisRecord, 0, len(s.byBarcode))
	for _, rec := range s.byBarcode {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}

	summaries := make([]models.AnalysisSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, rec.Summary())
	}
	return summaries, nil
}

func (s *MemoryAnalysisStore) listScanned(limit int, userID string) []models.AnalysisSummary {
	type scan struct {
		rec *models.AnalysisRecord
		seq int64
	}

	s.mu.RLock()
	scans := make([]scan, 0, len(s.scans[userID]))
	for barcode, seq := range s.scans[userID] {
		if rec, ok := s.byBarcode[barcode]; ok {
			scans = append(scans, scan{rec: rec, seq: seq})
		}
	}
	s.mu.RUnlock()

	sort.Slice(scans, func(i, j int) bool { return scans[i].seq > scans[j].seq })
	if limit >= 0 && len(scans) > limit {
		scans = scans[:limit]
	}

	summaries := make([]models.AnalysisSummary, 0, len(scans))
	for _, sc := range scans {
		summaries = append(summaries, sc.rec.Summary())
	}
	return summaries
}

// Len returns the number of stored records.
func (s *MemoryAnalysisStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byBarcode)
}

// MemoryUserRepository is an in-process UserRepository.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]models.User
	now   func() time.Time
}

var _ UserRepository = (*MemoryUserRepository)(nil)

// NewMemoryUserRepository creates an empty in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]models.User), now: time.Now}
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	user.Allergens = append([]string(nil), user.Allergens...)
	return &user, nil
}

func (r *MemoryUserRepository) UpsertAllergens(_ context.Context, id, email string, allergens []string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	user, ok := r.users[id]
	if !ok {
		user = models.User{ID: id, CreatedAt: now}
	}
	if email != "" {
		user.Email = email
	}
	user.Allergens = append([]string{}, allergens...)
	user.UpdatedAt = now
	r.users[id] = user

	out := user
	out.Allergens = append([]string{}, user.Allergens...)
	return &out, nil
}
