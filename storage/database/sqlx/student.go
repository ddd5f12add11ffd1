package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kavyasri378/student-profile-management1/core/student"
)

type profileRow struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	StudentID       string    `db:"student_id"`
	Course          string    `db:"course"`
	Department      string    `db:"department"`
	Year            int       `db:"year"`
	PersonalInfo    []byte    `db:"personal_info"`
	AcademicDetails []byte    `db:"academic_details"`
	FeeDetails      []byte    `db:"fee_details"`
	LastPaymentDate null.Time `db:"last_payment_date"`
	IsActive        bool      `db:"is_active"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type profileRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *sql.DB) *profileRepository {
	return &profileRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo profileRepository) pack(prof student.Profile) (profileRow, error) {
	pi, err := json.Marshal(prof.PersonalInfo)
	if err != nil {
		return profileRow{}, errors.Wrap(err, "marshaling personal info")
	}
	ad, err := json.Marshal(prof.AcademicDetails)
	if err != nil {
		return profileRow{}, errors.Wrap(err, "marshaling academic details")
	}
	fd, err := json.Marshal(prof.FeeDetails)
	if err != nil {
		return profileRow{}, errors.Wrap(err, "marshaling fee details")
	}

	var lastPayment null.Time
	if prof.FeeDetails.LastPaymentDate != nil {
		lastPayment = null.TimeFrom(prof.FeeDetails.LastPaymentDate.UTC())
	}

	return profileRow{
		ID:              prof.ID,
		UserID:          prof.UserID,
		StudentID:       prof.AcademicDetails.StudentID,
		Course:          prof.AcademicDetails.Course,
		Department:      prof.AcademicDetails.Department,
		Year:            prof.AcademicDetails.Year,
		PersonalInfo:    pi,
		AcademicDetails: ad,
		FeeDetails:      fd,
		LastPaymentDate: lastPayment,
		IsActive:        prof.IsActive,
		CreatedAt:       prof.CreatedAt.UTC(),
		UpdatedAt:       prof.UpdatedAt.UTC(),
	}, nil
}

func (repo profileRepository) unpack(row profileRow) (student.Profile, error) {
	prof := student.Profile{
		ID:        row.ID,
		UserID:    row.UserID,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if err := json.Unmarshal(row.PersonalInfo, &prof.PersonalInfo); err != nil {
		return student.Profile{}, errors.Wrap(err, "unmarshaling personal info")
	}
	if err := json.Unmarshal(row.AcademicDetails, &prof.AcademicDetails); err != nil {
		return student.Profile{}, errors.Wrap(err, "unmarshaling academic details")
	}
	if err := json.Unmarshal(row.FeeDetails, &prof.FeeDetails); err != nil {
		return student.Profile{}, errors.Wrap(err, "unmarshaling fee details")
	}
	if row.LastPaymentDate.Valid {
		t := row.LastPaymentDate.Time
		prof.FeeDetails.LastPaymentDate = &t
	}
	return prof, nil
}

func (repo profileRepository) unpackSlice(rows []profileRow) ([]student.Profile, error) {
	profs := make([]student.Profile, 0, len(rows))
	for _, row := range rows {
		prof, err := repo.unpack(row)
		if err != nil {
			return nil, err
		}
		profs = append(profs, prof)
	}
	return profs, nil
}

// trapUniqueErr maps a psql unique violation to the sentinel naming the
// offending field, based on the violated constraint.
func (repo profileRepository) trapUniqueErr(err error, msg string) error {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case "student_profile_user_id_key":
			return student.ErrProfileExists
		case "student_profile_student_id_key":
			return student.ErrStudentIDExists
		}
	}
	return errors.Wrap(err, msg)
}

func (repo profileRepository) CreateProfile(ctx context.Context, prof student.Profile) (student.Profile, error) {
	prof.ID = uuid.New().String()
	row, err := repo.pack(prof)
	if err != nil {
		return student.Profile{}, err
	}

	const query = `
		INSERT INTO student_profile (id, user_id, student_id, course, department, year,
			personal_info, academic_details, fee_details, last_payment_date, is_active, created_at, updated_at)
		VALUES (:id, :user_id, :student_id, :course, :department, :year,
			:personal_info, :academic_details, :fee_details, :last_payment_date, :is_active, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return student.Profile{}, repo.trapUniqueErr(err, "inserting profile")
	}
	return repo.unpack(row)
}

func (repo profileRepository) GetProfile(ctx context.Context, filter student.GetFilter) (student.Profile, error) {
	var row profileRow
	var err error

	if filter.ID != "" {
		if _, err = uuid.Parse(filter.ID); err != nil {
			return student.Profile{}, student.ErrNotFound
		}
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM student_profile WHERE id = $1`, filter.ID)
	} else {
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM student_profile WHERE user_id = $1`, filter.UserID)
	}
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return student.Profile{}, student.ErrNotFound
		}
		return student.Profile{}, errors.Wrap(err, "finding profile")
	}
	return repo.unpack(row)
}

func (repo profileRepository) FilterProfiles(ctx context.Context, filter student.QueryFilter) ([]student.Profile, int, error) {
	var conds []string
	var args []interface{}

	arg := func(val interface{}) string {
		args = append(args, val)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf(
			"(personal_info->>'firstName' ILIKE %[1]s OR personal_info->>'lastName' ILIKE %[1]s OR student_id ILIKE %[1]s)", p))
	}
	if filter.Course != "" {
		conds = append(conds, "course = "+arg(filter.Course))
	}
	if filter.Department != "" {
		conds = append(conds, "department = "+arg(filter.Department))
	}
	if filter.Year > 0 {
		conds = append(conds, "year = "+arg(filter.Year))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := repo.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM student_profile"+where, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting profiles")
	}

	query := fmt.Sprintf(
		"SELECT * FROM student_profile%s ORDER BY created_at DESC LIMIT %s OFFSET %s",
		where, arg(filter.Limit), arg(filter.Offset()))
	var rows []profileRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, errors.Wrap(err, "querying profiles")
	}

	profs, err := repo.unpackSlice(rows)
	if err != nil {
		return nil, 0, err
	}
	return profs, total, nil
}

func (repo profileRepository) UpdateProfile(ctx context.Context, prof student.Profile) (student.Profile, error) {
	row, err := repo.pack(prof)
	if err != nil {
		return student.Profile{}, err
	}

	const query = `
		UPDATE student_profile
		SET student_id = :student_id, course = :course, department = :department, year = :year,
		    personal_info = :personal_info, academic_details = :academic_details, fee_details = :fee_details,
		    last_payment_date = :last_payment_date, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return student.Profile{}, repo.trapUniqueErr(err, "updating profile")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return student.Profile{}, student.ErrNotFound
	}
	return repo.unpack(row)
}

func (repo profileRepository) DeleteProfile(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return student.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM student_profile WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting profile")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo profileRepository) ProfileStats(ctx context.Context) (student.Stats, error) {
	stats := student.Stats{
		CourseStats: []student.CourseCount{},
		YearStats:   []student.YearCount{},
	}

	if err := repo.db.GetContext(ctx, &stats.TotalStudents, `SELECT COUNT(*) FROM student_profile`); err != nil {
		return student.Stats{}, errors.Wrap(err, "counting students")
	}

	const feeQuery = `
		SELECT COALESCE(SUM((fee_details->>'totalFees')::numeric), 0)   AS total_fees,
		       COALESCE(SUM((fee_details->>'feesPaid')::numeric), 0)    AS total_paid,
		       COALESCE(SUM((fee_details->>'feesPending')::numeric), 0) AS total_pending
		FROM student_profile`
	var fees struct {
		TotalFees    float64 `db:"total_fees"`
		TotalPaid    float64 `db:"total_paid"`
		TotalPending float64 `db:"total_pending"`
	}
	if err := repo.db.GetContext(ctx, &fees, feeQuery); err != nil {
		return student.Stats{}, errors.Wrap(err, "summing fees")
	}
	stats.FeeStats = student.FeeStats{TotalFees: fees.TotalFees, TotalPaid: fees.TotalPaid, TotalPending: fees.TotalPending}

	var courses []struct {
		Course string `db:"course"`
		Count  int    `db:"count"`
	}
	if err := repo.db.SelectContext(
		ctx, &courses, `SELECT course, COUNT(*) AS count FROM student_profile GROUP BY course ORDER BY course`); err != nil {
		return student.Stats{}, errors.Wrap(err, "counting per course")
	}
	for _, c := range courses {
		stats.CourseStats = append(stats.CourseStats, student.CourseCount{Course: c.Course, Count: c.Count})
	}

	var years []struct {
		Year  int `db:"year"`
		Count int `db:"count"`
	}
	if err := repo.db.SelectContext(
		ctx, &years, `SELECT year, COUNT(*) AS count FROM student_profile GROUP BY year ORDER BY year`); err != nil {
		return student.Stats{}, errors.Wrap(err, "counting per year")
	}
	for _, y := range years {
		stats.YearStats = append(stats.YearStats, student.YearCount{Year: y.Year, Count: y.Count})
	}

	return stats, nil
}
