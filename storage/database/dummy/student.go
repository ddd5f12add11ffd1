package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kavyasri378/student-profile-management1/core/student"
)

type profileRepository struct {
	db *profileTable
}

var _ student.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db.profile}
}

func (repo *profileRepository) query() []student.Profile {
	profs := make([]student.Profile, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		profs = append(profs, *p)
	}
	return profs
}

func (repo *profileRepository) CreateProfile(ctx context.Context, prof student.Profile) (student.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, p := range repo.db.table {
		if p.UserID == prof.UserID {
			return student.Profile{}, student.ErrProfileExists
		}
		if p.AcademicDetails.StudentID == prof.AcademicDetails.StudentID {
			return student.Profile{}, student.ErrStudentIDExists
		}
	}

	prof.ID = uuid.New().String()
	repo.db.table[prof.ID] = &prof
	return prof, nil
}

func (repo *profileRepository) GetProfile(ctx context.Context, filter student.GetFilter) (student.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if prof, ok := repo.db.table[filter.ID]; ok {
			return *prof, nil
		}
		return student.Profile{}, student.ErrNotFound
	}
	for _, prof := range repo.db.table {
		if prof.UserID == filter.UserID {
			return *prof, nil
		}
	}
	return student.Profile{}, student.ErrNotFound
}

func (repo *profileRepository) FilterProfiles(ctx context.Context, filter student.QueryFilter) ([]student.Profile, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var matched []student.Profile
	for _, prof := range repo.query() {
		if matches(prof, filter) {
			matched = append(matched, prof)
		}
	}

	// newest first
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func matches(prof student.Profile, filter student.QueryFilter) bool {
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !(strings.Contains(strings.ToLower(prof.PersonalInfo.FirstName), search) ||
			strings.Contains(strings.ToLower(prof.PersonalInfo.LastName), search) ||
			strings.Contains(strings.ToLower(prof.AcademicDetails.StudentID), search)) {
			return false
		}
	}
	if filter.Course != "" && prof.AcademicDetails.Course != filter.Course {
		return false
	}
	if filter.Department != "" && prof.AcademicDetails.Department != filter.Department {
		return false
	}
	if filter.Year > 0 && prof.AcademicDetails.Year != filter.Year {
		return false
	}
	return true
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, prof student.Profile) (student.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[prof.ID]; !ok {
		return student.Profile{}, student.ErrNotFound
	}
	for _, p := range repo.db.table {
		if p.ID != prof.ID && p.AcademicDetails.StudentID == prof.AcademicDetails.StudentID {
			return student.Profile{}, student.ErrStudentIDExists
		}
	}
	repo.db.table[prof.ID] = &prof
	return prof, nil
}

func (repo *profileRepository) DeleteProfile(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *profileRepository) ProfileStats(ctx context.Context) (student.Stats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	stats := student.Stats{
		CourseStats: []student.CourseCount{},
		YearStats:   []student.YearCount{},
	}

	courseCounts := make(map[string]int)
	yearCounts := make(map[int]int)
	for _, prof := range repo.query() {
		stats.TotalStudents++
		stats.FeeStats.TotalFees += prof.FeeDetails.TotalFees
		stats.FeeStats.TotalPaid += prof.FeeDetails.FeesPaid
		stats.FeeStats.TotalPending += prof.FeeDetails.FeesPending
		courseCounts[prof.AcademicDetails.Course]++
		yearCounts[prof.AcademicDetails.Year]++
	}

	courses := make([]string, 0, len(courseCounts))
	for course := range courseCounts {
		courses = append(courses, course)
	}
	sort.Strings(courses)
	for _, course := range courses {
		stats.CourseStats = append(stats.CourseStats, student.CourseCount{Course: course, Count: courseCounts[course]})
	}

	years := make([]int, 0, len(yearCounts))
	for year := range yearCounts {
		years = append(years, year)
	}
	sort.Ints(years)
	for _, year := range years {
		stats.YearStats = append(stats.YearStats, student.YearCount{Year: year, Count: yearCounts[year]})
	}

	return stats, nil
}
