package inmemdb

import (
	"context"
	"sort"

	"github.com/jhsobrinho/educareapp-sub009/core/journey"
)

type reportRepository struct {
	db *reportTable
}

var _ journey.ReportRepository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) *reportRepository {
	return &reportRepository{db: db.report}
}

func cloneReport(r journey.Report) journey.Report {
	scores := make(map[journey.Dimension]float64, len(r.DimensionScores))
	for d, s := range r.DimensionScores {
		scores[d] = s
	}
	r.DimensionScores = scores
	r.Concerns = append([]journey.Dimension{}, r.Concerns...)
	r.Recommendations = append([]string{}, r.Recommendations...)
	return r
}

func (repo *reportRepository) SaveReport(_ context.Context, r journey.Report) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	r = cloneReport(r)
	repo.db.table[r.SessionID] = &r
	return nil
}

func (repo *reportRepository) GetReport(_ context.Context, sessionID string) (journey.Report, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.table[sessionID]; ok {
		return cloneReport(*r), nil
	}
	return journey.Report{}, journey.ErrReportNotFound
}

func (repo *reportRepository) QueryReports(_ context.Context, childID string) ([]journey.Report, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	reports := make([]journey.Report, 0)
	for _, r := range repo.db.table {
		if r.ChildID == childID {
			reports = append(reports, cloneReport(*r))
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].GeneratedAt.After(reports[j].GeneratedAt) })
	return reports, nil
}
