package student

import (
	"time"

	"github.com/kavyasri378/student-profile-management1/core"
)

// Gender is the closed set of accepted gender values.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// PaymentMethod is the closed set of accepted fee payment methods.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentOnline PaymentMethod = "online"
	PaymentCheque PaymentMethod = "cheque"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentOnline, PaymentCheque:
		return true
	}
	return false
}

const defaultCountry = "India"

type Address struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country"`
}

type PersonalInfo struct {
	FirstName   string    `json:"firstName" validate:"required"`
	LastName    string    `json:"lastName" validate:"required"`
	DateOfBirth time.Time `json:"dateOfBirth" validate:"required"`
	Gender      Gender    `json:"gender" validate:"required,gender"`
	Phone       string    `json:"phone" validate:"required,phone10"`
	Address     Address   `json:"address"`
}

type AcademicDetails struct {
	StudentID      string    `json:"studentId" validate:"required"`
	Course         string    `json:"course" validate:"required"`
	Department     string    `json:"department" validate:"required"`
	Year           int       `json:"year" validate:"required,min=1,max=4"`
	Semester       int       `json:"semester" validate:"required,min=1,max=8"`
	EnrollmentDate time.Time `json:"enrollmentDate" validate:"required"`
	GPA            float64   `json:"gpa" validate:"min=0,max=10"`
}

type Payment struct {
	Amount        float64       `json:"amount" validate:"required,gt=0"`
	Date          time.Time     `json:"date"`
	Method        PaymentMethod `json:"method" validate:"required,paymethod"`
	TransactionID string        `json:"transactionId,omitempty"`
}

type FeeDetails struct {
	TotalFees float64 `json:"totalFees" validate:"min=0"`
	FeesPaid  float64 `json:"feesPaid" validate:"min=0"`
	// FeesPending is derived: always TotalFees - FeesPaid, recomputed before every write.
	FeesPending     float64    `json:"feesPending"`
	LastPaymentDate *time.Time `json:"lastPaymentDate,omitempty"`
	PaymentHistory  []Payment  `json:"paymentHistory" validate:"omitempty,dive"`
}

// RecomputePending returns a copy of fd with FeesPending set to
// TotalFees - FeesPaid. The derived field is never independently settable.
func RecomputePending(fd FeeDetails) FeeDetails {
	fd.FeesPending = fd.TotalFees - fd.FeesPaid
	return fd
}

// Profile is the student profile aggregate, associated 1:1 with a user account.
type Profile struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	PersonalInfo    PersonalInfo    `json:"personalInfo"`
	AcademicDetails AcademicDetails `json:"academicDetails"`
	FeeDetails      FeeDetails      `json:"feeDetails"`
	IsActive        bool            `json:"isActive"`
	CreatedAt       time.Time       `json:"createdAt"` // UTC
	UpdatedAt       time.Time       `json:"updatedAt"` // UTC
}

// NewProfile contains information needed to create a student Profile.
type NewProfile struct {
	PersonalInfo    PersonalInfo    `json:"personalInfo"`
	AcademicDetails AcademicDetails `json:"academicDetails"`
	FeeDetails      FeeDetails      `json:"feeDetails"`
}

func (np *NewProfile) Validate() error {
	np.clean()
	return core.Validate.Struct(np)
}

func (np *NewProfile) clean() {
	cleanPersonalInfo(&np.PersonalInfo)
	cleanAcademicDetails(&np.AcademicDetails)
}

// UpdateProfile defines what may be provided to modify an existing Profile.
// A provided section replaces the stored one wholesale and is re-validated
// in full; omitted sections are left untouched.
type UpdateProfile struct {
	PersonalInfo    *PersonalInfo    `json:"personalInfo" validate:"omitempty"`
	AcademicDetails *AcademicDetails `json:"academicDetails" validate:"omitempty"`
	FeeDetails      *FeeDetails      `json:"feeDetails" validate:"omitempty"`
	IsActive        *bool            `json:"isActive"`
}

func (up *UpdateProfile) Validate() error {
	if up.PersonalInfo != nil {
		cleanPersonalInfo(up.PersonalInfo)
	}
	if up.AcademicDetails != nil {
		cleanAcademicDetails(up.AcademicDetails)
	}
	return core.Validate.Struct(up)
}

func cleanPersonalInfo(pi *PersonalInfo) {
	pi.FirstName = core.CleanString(pi.FirstName)
	pi.LastName = core.CleanString(pi.LastName)
	pi.Phone = core.CleanString(pi.Phone)
	pi.Address.Street = core.CleanString(pi.Address.Street)
	pi.Address.City = core.CleanString(pi.Address.City)
	pi.Address.State = core.CleanString(pi.Address.State)
	pi.Address.PostalCode = core.CleanString(pi.Address.PostalCode)
	pi.Address.Country = core.CleanString(pi.Address.Country)
	if pi.Address.Country == "" {
		pi.Address.Country = defaultCountry
	}
}

func cleanAcademicDetails(ad *AcademicDetails) {
	ad.StudentID = core.CleanString(ad.StudentID)
	ad.Course = core.CleanString(ad.Course)
	ad.Department = core.CleanString(ad.Department)
}

// QueryFilter narrows and paginates the profile listing.
// Search does a case-insensitive substring match on one of first name,
// last name or student ID; the remaining fields are exact AND filters.
type QueryFilter struct {
	Search     string `query:"search"`
	Course     string `query:"course"`
	Department string `query:"department"`
	Year       int    `query:"year"`
	Page       int    `query:"page"`
	Limit      int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Course = core.CleanString(qf.Course)
	qf.Department = core.CleanString(qf.Department)
	if qf.Page < 1 {
		qf.Page = 1
	}
	if qf.Limit < 1 {
		qf.Limit = 10
	}
}

func (qf *QueryFilter) Offset() int {
	return (qf.Page - 1) * qf.Limit
}

// Dashboard statistics

type (
	FeeStats struct {
		TotalFees    float64 `json:"totalFees"`
		TotalPaid    float64 `json:"totalPaid"`
		TotalPending float64 `json:"totalPending"`
	}

	CourseCount struct {
		Course string `json:"course"`
		Count  int    `json:"count"`
	}

	YearCount struct {
		Year  int `json:"year"`
		Count int `json:"count"`
	}

	Stats struct {
		TotalStudents int           `json:"totalStudents"`
		FeeStats      FeeStats      `json:"feeStats"`
		CourseStats   []CourseCount `json:"courseStats"`
		YearStats     []YearCount   `json:"yearStats"`
	}
)

// GetFilter selects a single Profile by ID or by owning user ID.
type GetFilter struct {
	ID     string
	UserID string
}
