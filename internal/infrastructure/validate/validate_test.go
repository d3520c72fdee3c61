package validate

import "testing"

type credential struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestPlaygroundV10_Struct(t *testing.T) {
	v := NewValidator()
	if errs := v.Struct(&credential{Username: "ana", Password: "secret"}); errs != nil {
		t.Errorf("Struct(valid) = %v, want nil", errs)
	}
	errs := v.Struct(&credential{Password: "short"})
	if len(errs) != 2 {
		t.Fatalf("Struct(invalid) = %v, want 2 field errors", errs)
	}
	if errs[0].Domain != "username" || errs[1].Domain != "password" {
		t.Errorf("domains = %s, %s, want json names", errs[0].Domain, errs[1].Domain)
	}
}

func TestPlaygroundV10_AllEmpty(t *testing.T) {
	v := NewValidator()
	if errs := v.AllEmpty([]string{"username", "email"}, "", "ana@example.com"); errs != nil {
		t.Errorf("AllEmpty(one set) = %v, want nil", errs)
	}
	errs := v.AllEmpty([]string{"username", "email"}, "", "")
	if len(errs) != 1 || errs[0].Domain != "username,email" {
		t.Errorf("AllEmpty(none set) = %v", errs)
	}
}

func TestFieldErrors_Error(t *testing.T) {
	errs := append(FieldErrors{NewFieldError("username", "is required")},
		NewFieldError("", "malformed body"))
	if got, want := errs.Error(), "username: is required; malformed body"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var err error = NewValidator().Empty("password", "")
	if err == nil || err.Error() != "password: password is required" {
		t.Errorf("Empty() as error = %v", err)
	}
}
