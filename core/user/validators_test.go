package user

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/kavyasri378/student-profile-management1/core"
)

func Test_validatePassword(t *testing.T) {
	tests := []struct {
		name    string
		nu      NewUser
		wantTag string // empty means valid
	}{
		{name: "valid", nu: NewUser{Name: "Hero", Email: "hero@test.cd", Password: "pw123456", Role: RoleStudent}},
		{name: "too short", nu: NewUser{Name: "Hero", Email: "hero@test.cd", Password: "pw1", Role: RoleStudent}, wantTag: pwdMinLenTag},
		{name: "whitespace", nu: NewUser{Name: "Hero", Email: "hero@test.cd", Password: "pw 12345", Role: RoleStudent}, wantTag: pwdNoSpaceTag},
		{name: "all numeric", nu: NewUser{Name: "Hero", Email: "hero@test.cd", Password: "12345678", Role: RoleStudent}, wantTag: pwdNotAllNumTag},
		{name: "similar to name", nu: NewUser{Name: "Chantal Hero", Email: "hero@test.cd", Password: "chantalhero1", Role: RoleStudent}, wantTag: pwdAttrSimTag},
		{name: "similar to email", nu: NewUser{Name: "Hero", Email: "hero@test.cd", Password: "hero@test.cd", Role: RoleStudent}, wantTag: pwdAttrSimTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.Validate.Struct(&tt.nu)
			if tt.wantTag == "" {
				if err != nil {
					t.Fatalf("Struct() unexpected error = %v", err)
				}
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			if !ok {
				t.Fatalf("Struct() error = %v, want ValidationErrors", err)
			}
			var tags []string
			for _, vErr := range vErrs {
				tags = append(tags, vErr.Tag())
			}
			if !contains(tags, tt.wantTag) {
				t.Errorf("Struct() tags = %v, want %v", tags, tt.wantTag)
			}
		})
	}
}

func Test_roleValidation(t *testing.T) {
	tests := []struct {
		role    Role
		wantErr bool
	}{
		{role: RoleStudent},
		{role: RoleAdmin},
		{role: "superuser", wantErr: true},
		{role: "Student", wantErr: true}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			nu := NewUser{Name: "Hero", Email: "hero@test.cd", Password: "pw123456", Role: tt.role}
			err := core.Validate.Struct(&nu)
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), roleTag) {
				t.Errorf("Struct() error = %v, want tag %v", err, roleTag)
			}
		})
	}
}

func TestUser_password(t *testing.T) {
	var usr User
	if err := usr.SetPassword("pw123456"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if err := usr.CheckPassword("pw123456"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}
	if err := usr.CheckPassword("nope1234"); err == nil {
		t.Error("CheckPassword() expected error for wrong password")
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
