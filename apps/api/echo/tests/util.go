package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/kavyasri378/student-profile-management1/apps/api/echo"
	"github.com/kavyasri378/student-profile-management1/core"
	"github.com/kavyasri378/student-profile-management1/core/student"
	"github.com/kavyasri378/student-profile-management1/core/user"
	emailsvc "github.com/kavyasri378/student-profile-management1/services/email"
	dummydb "github.com/kavyasri378/student-profile-management1/storage/database/dummy"
)

var (
	usrRepo    user.Repository
	profRepo   student.Repository
	usrSvc     *user.Service
	studentSvc *student.Service

	errMissingToken = errResponse{Success: false, Message: "Not authorized to access this route"}
)

func setup(t *testing.T) Server {
	t.Helper()
	core.Conf.TestMode = true

	// set up DB & repos
	db := dummydb.Open()
	usrRepo = dummydb.NewUserRepository(db)
	profRepo = dummydb.NewProfileRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc = user.NewService(usrRepo, mailSvc)
	studentSvc = student.NewService(profRepo, usrRepo)

	// set up server
	return NewServer(
		&Options{
			DisableReqLogs: true,
			Logger:         nopLogger{},
			UserSvc:        usrSvc,
			StudentSvc:     studentSvc,
		},
	)
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// errResponse mirrors the error envelope.
type errResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// envelope mirrors the success envelope with the payload left raw.
type envelope struct {
	Success                   bool              `json:"success"`
	Message                   string            `json:"message"`
	Data                      json.RawMessage   `json:"data"`
	Errors                    []core.FieldError `json:"errors"`
	Pagination                *core.Pagination  `json:"pagination"`
	RequiresProfileCompletion bool              `json:"requiresProfileCompletion"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func createUser(t *testing.T, name, email, pwd string, role user.Role, isActive bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	usr, err := usrRepo.CreateUser(ctxb(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func createProfile(t *testing.T, usr user.User, np student.NewProfile) student.Profile {
	t.Helper()
	prof, err := studentSvc.Create(ctxb(), usr.ID, np)
	if err != nil {
		t.Fatalf("createProfile() failed: %v", err)
	}
	return prof
}

func newProfilePayload(studentID, firstName, lastName, course, department string, year int, totalFees, feesPaid float64) student.NewProfile {
	return student.NewProfile{
		PersonalInfo: student.PersonalInfo{
			FirstName:   firstName,
			LastName:    lastName,
			DateOfBirth: time.Date(2003, time.April, 12, 0, 0, 0, 0, time.UTC),
			Gender:      student.GenderFemale,
			Phone:       "9876543210",
			Address: student.Address{
				Street:     "12 MG Road",
				City:       "Bengaluru",
				State:      "Karnataka",
				PostalCode: "560001",
			},
		},
		AcademicDetails: student.AcademicDetails{
			StudentID:      studentID,
			Course:         course,
			Department:     department,
			Year:           year,
			Semester:       year * 2,
			EnrollmentDate: time.Date(2022, time.August, 1, 0, 0, 0, 0, time.UTC),
			GPA:            8.2,
		},
		FeeDetails: student.FeeDetails{
			TotalFees: totalFees,
			FeesPaid:  feesPaid,
		},
	}
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func decodeRes(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var res envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decodeRes() failed: %v; body: %s", err, rec.Body.String())
	}
	return res
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) envelope {
	t.Helper()
	res := decodeRes(t, rec)
	if res.Data != nil {
		if err := json.Unmarshal(res.Data, obj); err != nil {
			t.Fatalf("decodeData() failed: %v; data: %s", err, string(res.Data))
		}
	}
	return res
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	t.Helper()
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return jsonValuesEqual(j1, j2), nil
}

func jsonValuesEqual(j1, j2 interface{}) bool {
	b1, err1 := json.Marshal(j1)
	b2, err2 := json.Marshal(j2)
	return err1 == nil && err2 == nil && bytes.Equal(b1, b2)
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body = %v", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func ctxb() context.Context { return context.Background() }
