package tests

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavyasri378/student-profile-management1/core/student"
	"github.com/kavyasri378/student-profile-management1/core/user"
)

func listPath(search, course, department string, year, page, limit int) string {
	v := make(url.Values)
	if search != "" {
		v.Add("search", search)
	}
	if course != "" {
		v.Add("course", course)
	}
	if department != "" {
		v.Add("department", department)
	}
	if year > 0 {
		v.Add("year", strconv.Itoa(year))
	}
	if page > 0 {
		v.Add("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Add("limit", strconv.Itoa(limit))
	}
	return "/api/profile/all?" + v.Encode()
}

func Test_profileApi_create(t *testing.T) {
	app := setup(t)

	hero := createUser(t, "Hero", "hero@test.cd", "pw123456", user.RoleStudent, true)
	rival := createUser(t, "Rival", "rival@test.cd", "pw123456", user.RoleStudent, true)
	admin := createUser(t, "Admin", "admin@test.cd", "pw123456", user.RoleAdmin, true)
	heroToken := getToken(t, hero)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/profile")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("Admins cannot create a profile", func(t *testing.T) {
		np := newProfilePayload("STU001", "Admin", "Istrator", "BTech", "CSE", 2, 100000, 40000)
		req, rec := newAuthRequest(http.MethodPost, "/api/profile", getToken(t, admin), marchallObj(t, np))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errResponse{Message: "User role admin is not authorized to access this route"}),
		}, rec)
	})

	t.Run("Pending fees are derived on create", func(t *testing.T) {
		np := newProfilePayload("STU001", "Kavya", "Sri", "BTech", "CSE", 2, 100000, 40000)
		req, rec := newAuthRequest(http.MethodPost, "/api/profile", heroToken, marchallObj(t, np))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var prof student.Profile
		decodeData(t, rec, &prof)
		assert.Equal(t, hero.ID, prof.UserID)
		assert.Equal(t, float64(60000), prof.FeeDetails.FeesPending)
		assert.Equal(t, "India", prof.PersonalInfo.Address.Country) // defaulted

		// the owner's completion flag is flipped on
		usr, err := usrSvc.GetByID(ctxb(), hero.ID)
		require.NoError(t, err)
		assert.True(t, usr.ProfileCompleted)
	})

	t.Run("Second profile for the same user rejected", func(t *testing.T) {
		np := newProfilePayload("STU002", "Kavya", "Sri", "BTech", "CSE", 2, 100000, 40000)
		req, rec := newAuthRequest(http.MethodPost, "/api/profile", heroToken, marchallObj(t, np))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errResponse{Message: "profile already exists for this user"}),
		}, rec)

		// the completion flag never reverts
		usr, err := usrSvc.GetByID(ctxb(), hero.ID)
		require.NoError(t, err)
		assert.True(t, usr.ProfileCompleted)
	})

	t.Run("Duplicate student ID rejected", func(t *testing.T) {
		np := newProfilePayload("STU001", "Rival", "Kid", "BTech", "CSE", 2, 100000, 40000)
		req, rec := newAuthRequest(http.MethodPost, "/api/profile", getToken(t, rival), marchallObj(t, np))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, errResponse{Message: "a profile with this student ID already exists"}),
		}, rec)

		// the loser's flag stays off
		usr, err := usrSvc.GetByID(ctxb(), rival.ID)
		require.NoError(t, err)
		assert.False(t, usr.ProfileCompleted)
	})

	t.Run("Invalid payload names nested fields", func(t *testing.T) {
		np := newProfilePayload("STU003", "", "Kid", "BTech", "CSE", 9, 100000, 40000)
		np.PersonalInfo.Phone = "12345" // not 10 digits
		req, rec := newAuthRequest(http.MethodPost, "/api/profile", getToken(t, rival), marchallObj(t, np))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

		res := decodeRes(t, rec)
		require.Equal(t, "Validation failed", res.Message)
		fields := make([]string, 0, len(res.Errors))
		for _, fErr := range res.Errors {
			fields = append(fields, fErr.Field)
		}
		assert.Contains(t, fields, "personalInfo.firstName")
		assert.Contains(t, fields, "personalInfo.phone")
		assert.Contains(t, fields, "academicDetails.year")
	})
}

func Test_profileApi_me(t *testing.T) {
	app := setup(t)

	hero := createUser(t, "Hero", "hero@test.cd", "pw123456", user.RoleStudent, true)
	admin := createUser(t, "Admin", "admin@test.cd", "pw123456", user.RoleAdmin, true)
	heroToken := getToken(t, hero)

	t.Run("Incomplete profile is gated", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/profile/me", heroToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

		res := decodeRes(t, rec)
		assert.False(t, res.Success)
		assert.Equal(t, "Please complete your profile first", res.Message)
		assert.True(t, res.RequiresProfileCompletion)
	})

	prof := createProfile(t, hero, newProfilePayload("STU001", "Kavya", "Sri", "BTech", "CSE", 2, 100000, 40000))

	t.Run("Own profile returned once completed", func(t *testing.T) {
		// same token as before; the gate re-reads the stored flag
		req, rec := newAuthRequest(http.MethodGet, "/api/profile/me", heroToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got student.Profile
		decodeData(t, rec, &got)
		assert.Equal(t, prof.ID, got.ID)
		assert.Equal(t, hero.ID, got.UserID)
	})

	t.Run("Admins have no own profile route", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/profile/me", getToken(t, admin))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errResponse{Message: "User role admin is not authorized to access this route"}),
		}, rec)
	})
}

func Test_profileApi_query(t *testing.T) {
	app := setup(t)

	admin := createUser(t, "Admin", "admin@test.cd", "pw123456", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	// 15 profiles: STU01..STU15; odd ones in BTech/CSE, even ones in BSc/Physics
	for i := 1; i <= 15; i++ {
		usr := createUser(t, fmt.Sprintf("Student %02d", i), fmt.Sprintf("s%02d@test.cd", i), "pw123456", user.RoleStudent, true)
		course, department := "BTech", "CSE"
		if i%2 == 0 {
			course, department = "BSc", "Physics"
		}
		np := newProfilePayload(fmt.Sprintf("STU%02d", i), fmt.Sprintf("First%02d", i), "Last", course, department, i%4+1, 100000, 40000)
		createProfile(t, usr, np)
	}

	t.Run("Students cannot list profiles", func(t *testing.T) {
		stu, err := usrSvc.GetByEmail(ctxb(), "s01@test.cd")
		require.NoError(t, err)
		req, rec := newAuthRequest(http.MethodGet, "/api/profile/all", getToken(t, stu))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errResponse{Message: "User role student is not authorized to access this route"}),
		}, rec)
	})

	tests := []struct {
		name      string
		path      string
		wantCount int
		wantTotal int
		wantPages int
	}{
		{name: "First page defaults to 10", path: listPath("", "", "", 0, 0, 0), wantCount: 10, wantTotal: 15, wantPages: 2},
		{name: "Second page has the rest", path: listPath("", "", "", 0, 2, 10), wantCount: 5, wantTotal: 15, wantPages: 2},
		{name: "Search by first name", path: listPath("first07", "", "", 0, 0, 0), wantCount: 1, wantTotal: 1, wantPages: 1},
		{name: "Search by student ID", path: listPath("STU1", "", "", 0, 0, 0), wantCount: 6, wantTotal: 6, wantPages: 1},
		{name: "Course filter", path: listPath("", "BSc", "", 0, 0, 0), wantCount: 7, wantTotal: 7, wantPages: 1},
		{name: "Department filter", path: listPath("", "", "CSE", 0, 0, 0), wantCount: 8, wantTotal: 8, wantPages: 1},
		{name: "Search and course intersect", path: listPath("STU1", "BTech", "", 0, 0, 0), wantCount: 3, wantTotal: 3, wantPages: 1},
		{name: "No match", path: listPath("ghost", "", "", 0, 0, 0), wantCount: 0, wantTotal: 0, wantPages: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, adminToken)
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var profs []student.Profile
			res := decodeData(t, rec, &profs)
			assert.Len(t, profs, tt.wantCount)
			require.NotNil(t, res.Pagination)
			assert.Equal(t, tt.wantTotal, res.Pagination.Total)
			assert.Equal(t, tt.wantPages, res.Pagination.Pages)
		})
	}
}

func Test_profileApi_detail(t *testing.T) {
	app := setup(t)

	hero := createUser(t, "Hero", "hero@test.cd", "pw123456", user.RoleStudent, true)
	admin := createUser(t, "Admin", "admin@test.cd", "pw123456", user.RoleAdmin, true)
	adminToken := getToken(t, admin)
	prof := createProfile(t, hero, newProfilePayload("STU001", "Kavya", "Sri", "BTech", "CSE", 2, 100000, 40000))

	t.Run("Students cannot access detail routes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/profile/"+prof.ID, getToken(t, hero))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	})

	t.Run("Retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/profile/"+prof.ID, adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got student.Profile
		decodeData(t, rec, &got)
		assert.Equal(t, prof.ID, got.ID)
	})

	t.Run("Retrieve unknown", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/profile/nope", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errResponse{Message: "profile not found"}),
		}, rec)
	})

	t.Run("Update recomputes pending fees", func(t *testing.T) {
		up := map[string]interface{}{
			"feeDetails": map[string]interface{}{
				"totalFees":   100000,
				"feesPaid":    70000,
				"feesPending": 12345, // ignored: always derived
			},
		}
		req, rec := newAuthRequest(http.MethodPut, "/api/profile/"+prof.ID, adminToken, marchallObj(t, up))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got student.Profile
		decodeData(t, rec, &got)
		assert.Equal(t, float64(30000), got.FeeDetails.FeesPending)
		// untouched sections survive
		assert.Equal(t, "Kavya", got.PersonalInfo.FirstName)
		assert.Equal(t, "STU001", got.AcademicDetails.StudentID)
	})

	t.Run("Update with invalid section rejected", func(t *testing.T) {
		up := map[string]interface{}{
			"academicDetails": map[string]interface{}{
				"studentId":      "STU001",
				"course":         "BTech",
				"department":     "CSE",
				"year":           7, // out of range
				"semester":       4,
				"enrollmentDate": "2022-08-01T00:00:00Z",
			},
		}
		req, rec := newAuthRequest(http.MethodPut, "/api/profile/"+prof.ID, adminToken, marchallObj(t, up))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("Delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/profile/"+prof.ID, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{"success": true, "message": "Profile deleted successfully"}),
		}, rec)

		// deleting a profile does not revert the owner's completion flag
		usr, err := usrSvc.GetByID(ctxb(), hero.ID)
		require.NoError(t, err)
		assert.True(t, usr.ProfileCompleted)
	})

	t.Run("Delete unknown", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/profile/"+prof.ID, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errResponse{Message: "profile not found"}),
		}, rec)
	})
}

func Test_profileApi_stats(t *testing.T) {
	app := setup(t)

	admin := createUser(t, "Admin", "admin@test.cd", "pw123456", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	t.Run("Empty store", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/profile/stats/dashboard", adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var stats student.Stats
		decodeData(t, rec, &stats)
		assert.Equal(t, 0, stats.TotalStudents)
	})

	u1 := createUser(t, "One", "one@test.cd", "pw123456", user.RoleStudent, true)
	u2 := createUser(t, "Two", "two@test.cd", "pw123456", user.RoleStudent, true)
	u3 := createUser(t, "Three", "three@test.cd", "pw123456", user.RoleStudent, true)
	createProfile(t, u1, newProfilePayload("STU001", "One", "Last", "BTech", "CSE", 1, 100000, 40000))
	createProfile(t, u2, newProfilePayload("STU002", "Two", "Last", "BTech", "CSE", 2, 100000, 100000))
	createProfile(t, u3, newProfilePayload("STU003", "Three", "Last", "BSc", "Physics", 1, 50000, 0))

	t.Run("Aggregates", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/profile/stats/dashboard", adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var stats student.Stats
		decodeData(t, rec, &stats)
		assert.Equal(t, 3, stats.TotalStudents)
		assert.Equal(t, float64(250000), stats.FeeStats.TotalFees)
		assert.Equal(t, float64(140000), stats.FeeStats.TotalPaid)
		assert.Equal(t, float64(110000), stats.FeeStats.TotalPending)
		assert.Equal(t, []student.CourseCount{{Course: "BSc", Count: 1}, {Course: "BTech", Count: 2}}, stats.CourseStats)
		assert.Equal(t, []student.YearCount{{Year: 1, Count: 2}, {Year: 2, Count: 1}}, stats.YearStats)
	})

	t.Run("Students cannot view stats", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/profile/stats/dashboard", getToken(t, u1))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	})
}
