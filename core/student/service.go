package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kavyasri378/student-profile-management1/core"
	"github.com/kavyasri378/student-profile-management1/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists for this user")
	ErrStudentIDExists = errors.New("a profile with this student ID already exists")
)

type (
	Repository interface {
		// CreateProfile persists a new profile. Uniqueness of the user ID and
		// the student ID is enforced by the store itself; a concurrent
		// duplicate create has exactly one winner, the loser gets
		// ErrProfileExists or ErrStudentIDExists.
		CreateProfile(ctx context.Context, prof Profile) (Profile, error)
		GetProfile(ctx context.Context, filter GetFilter) (Profile, error)
		// FilterProfiles applies QueryFilter and returns the requested page
		// sorted by creation time descending, plus the total match count.
		FilterProfiles(ctx context.Context, filter QueryFilter) ([]Profile, int, error)
		UpdateProfile(ctx context.Context, prof Profile) (Profile, error)
		DeleteProfile(ctx context.Context, id string) error
		ProfileStats(ctx context.Context) (Stats, error)
	}

	Service struct {
		repo    Repository
		usrRepo user.Repository
	}
)

func NewService(repo Repository, usrRepo user.Repository) *Service {
	return &Service{repo: repo, usrRepo: usrRepo}
}

// Create persists a new profile for the given user and marks that user's
// profile as completed. Fails with ErrProfileExists if the user already has
// one and ErrStudentIDExists on a student ID collision.
func (svc *Service) Create(ctx context.Context, userID string, np NewProfile) (Profile, error) {
	now := time.Now().UTC()
	prof := Profile{
		UserID:          userID,
		PersonalInfo:    np.PersonalInfo,
		AcademicDetails: np.AcademicDetails,
		FeeDetails:      normalizeFees(np.FeeDetails, now),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	prof, err := svc.repo.CreateProfile(ctx, prof)
	if err != nil {
		return Profile{}, err
	}
	if err := svc.usrRepo.SetProfileCompleted(ctx, userID); err != nil {
		return Profile{}, errors.Wrap(err, "marking profile completed")
	}
	return prof, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfile(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByUserID(ctx context.Context, userID string) (Profile, error) {
	return svc.repo.GetProfile(ctx, GetFilter{UserID: userID})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Profile, core.Pagination, error) {
	filter.Clean()
	profs, total, err := svc.repo.FilterProfiles(ctx, filter)
	if err != nil {
		return nil, core.Pagination{}, err
	}
	return profs, core.NewPagination(filter.Page, filter.Limit, total), nil
}

// Update applies a partial payload to an existing profile. Provided sections
// replace the stored ones; the pending-fees derivation is reapplied before
// persisting so the stored value can never go stale.
func (svc *Service) Update(ctx context.Context, id string, up UpdateProfile) (Profile, error) {
	prof, err := svc.repo.GetProfile(ctx, GetFilter{ID: id})
	if err != nil {
		return Profile{}, err
	}

	now := time.Now().UTC()
	if up.PersonalInfo != nil {
		prof.PersonalInfo = *up.PersonalInfo
	}
	if up.AcademicDetails != nil {
		prof.AcademicDetails = *up.AcademicDetails
	}
	if up.FeeDetails != nil {
		prof.FeeDetails = normalizeFees(*up.FeeDetails, now)
	} else {
		prof.FeeDetails = RecomputePending(prof.FeeDetails)
	}
	if up.IsActive != nil {
		prof.IsActive = *up.IsActive
	}
	prof.UpdatedAt = now

	return svc.repo.UpdateProfile(ctx, prof)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	// the owning user's profileCompleted flag is intentionally left as-is
	return svc.repo.DeleteProfile(ctx, id)
}

func (svc *Service) DashboardStats(ctx context.Context) (Stats, error) {
	return svc.repo.ProfileStats(ctx)
}

// normalizeFees defaults payment dates to now and reapplies the
// pending-fees derivation.
func normalizeFees(fd FeeDetails, now time.Time) FeeDetails {
	for i := range fd.PaymentHistory {
		if fd.PaymentHistory[i].Date.IsZero() {
			fd.PaymentHistory[i].Date = now
		}
	}
	return RecomputePending(fd)
}
