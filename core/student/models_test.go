package student

import (
	"strings"
	"testing"
	"time"
)

func TestRecomputePending(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		paid  float64
		stale float64 // whatever the caller claims FeesPending is
		want  float64
	}{
		{name: "unpaid", total: 100000, want: 100000},
		{name: "partially paid", total: 100000, paid: 40000, want: 60000},
		{name: "fully paid", total: 100000, paid: 100000, want: 0},
		{name: "stale value overwritten", total: 100000, paid: 40000, stale: 12345, want: 60000},
		{name: "zero fees", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fd := RecomputePending(FeeDetails{TotalFees: tt.total, FeesPaid: tt.paid, FeesPending: tt.stale})
			if fd.FeesPending != tt.want {
				t.Errorf("RecomputePending() FeesPending = %v, want %v", fd.FeesPending, tt.want)
			}
		})
	}
}

func Test_normalizeFees(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	paidAt := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)

	fd := normalizeFees(FeeDetails{
		TotalFees:   100000,
		FeesPaid:    40000,
		FeesPending: 999, // recomputed
		PaymentHistory: []Payment{
			{Amount: 25000, Method: PaymentOnline, Date: paidAt},
			{Amount: 15000, Method: PaymentCash}, // date defaulted
		},
	}, now)

	if fd.FeesPending != 60000 {
		t.Errorf("FeesPending = %v, want 60000", fd.FeesPending)
	}
	if !fd.PaymentHistory[0].Date.Equal(paidAt) {
		t.Errorf("explicit payment date changed: %v", fd.PaymentHistory[0].Date)
	}
	if !fd.PaymentHistory[1].Date.Equal(now) {
		t.Errorf("zero payment date not defaulted: %v", fd.PaymentHistory[1].Date)
	}
}

func validNewProfile() NewProfile {
	return NewProfile{
		PersonalInfo: PersonalInfo{
			FirstName:   "Kavya",
			LastName:    "Sri",
			DateOfBirth: time.Date(2003, time.April, 12, 0, 0, 0, 0, time.UTC),
			Gender:      GenderFemale,
			Phone:       "9876543210",
			Address: Address{
				Street:     "12 MG Road",
				City:       "Bengaluru",
				State:      "Karnataka",
				PostalCode: "560001",
			},
		},
		AcademicDetails: AcademicDetails{
			StudentID:      "STU001",
			Course:         "BTech",
			Department:     "CSE",
			Year:           2,
			Semester:       4,
			EnrollmentDate: time.Date(2022, time.August, 1, 0, 0, 0, 0, time.UTC),
			GPA:            8.2,
		},
		FeeDetails: FeeDetails{TotalFees: 100000, FeesPaid: 40000},
	}
}

func TestNewProfile_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(np *NewProfile)
		wantErrs []string // offending field paths; empty means valid
	}{
		{name: "valid", mutate: func(np *NewProfile) {}},
		{
			name:     "first name required",
			mutate:   func(np *NewProfile) { np.PersonalInfo.FirstName = "  " },
			wantErrs: []string{"personalInfo.firstName"},
		},
		{
			name:     "unknown gender",
			mutate:   func(np *NewProfile) { np.PersonalInfo.Gender = "attack-helicopter" },
			wantErrs: []string{"personalInfo.gender"},
		},
		{
			name:     "phone must be 10 digits",
			mutate:   func(np *NewProfile) { np.PersonalInfo.Phone = "12345" },
			wantErrs: []string{"personalInfo.phone"},
		},
		{
			name:     "year out of range",
			mutate:   func(np *NewProfile) { np.AcademicDetails.Year = 5 },
			wantErrs: []string{"academicDetails.year"},
		},
		{
			name:     "semester out of range",
			mutate:   func(np *NewProfile) { np.AcademicDetails.Semester = 9 },
			wantErrs: []string{"academicDetails.semester"},
		},
		{
			name:     "gpa out of range",
			mutate:   func(np *NewProfile) { np.AcademicDetails.GPA = 11 },
			wantErrs: []string{"academicDetails.gpa"},
		},
		{
			name:     "negative fees",
			mutate:   func(np *NewProfile) { np.FeeDetails.TotalFees = -1 },
			wantErrs: []string{"feeDetails.totalFees"},
		},
		{
			name: "unknown payment method",
			mutate: func(np *NewProfile) {
				np.FeeDetails.PaymentHistory = []Payment{{Amount: 100, Method: "barter"}}
			},
			wantErrs: []string{"feeDetails.paymentHistory[0].method"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			np := validNewProfile()
			tt.mutate(&np)

			err := np.Validate()
			if len(tt.wantErrs) == 0 {
				if err != nil {
					t.Fatalf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			for _, field := range tt.wantErrs {
				if !strings.Contains(err.Error(), lastSegment(field)) {
					t.Errorf("Validate() error = %v, want field %s", err, field)
				}
			}
		})
	}
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

func TestNewProfile_Validate_defaults(t *testing.T) {
	np := validNewProfile()
	np.PersonalInfo.FirstName = "  Kavya  "
	np.PersonalInfo.Address.Country = ""

	if err := np.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}
	if np.PersonalInfo.FirstName != "Kavya" {
		t.Errorf("FirstName not trimmed: %q", np.PersonalInfo.FirstName)
	}
	if np.PersonalInfo.Address.Country != "India" {
		t.Errorf("Country not defaulted: %q", np.PersonalInfo.Address.Country)
	}
}

func TestQueryFilter_Clean(t *testing.T) {
	tests := []struct {
		name       string
		filter     QueryFilter
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", wantPage: 1, wantLimit: 10, wantOffset: 0},
		{name: "negative page", filter: QueryFilter{Page: -3, Limit: 5}, wantPage: 1, wantLimit: 5, wantOffset: 0},
		{name: "second page", filter: QueryFilter{Page: 2, Limit: 10}, wantPage: 2, wantLimit: 10, wantOffset: 10},
		{name: "custom limit", filter: QueryFilter{Page: 3, Limit: 7}, wantPage: 3, wantLimit: 7, wantOffset: 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.Clean()
			if tt.filter.Page != tt.wantPage || tt.filter.Limit != tt.wantLimit {
				t.Errorf("Clean() = page %v limit %v, want page %v limit %v", tt.filter.Page, tt.filter.Limit, tt.wantPage, tt.wantLimit)
			}
			if got := tt.filter.Offset(); got != tt.wantOffset {
				t.Errorf("Offset() = %v, want %v", got, tt.wantOffset)
			}
		})
	}
}
