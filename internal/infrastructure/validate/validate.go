package validate

import "strings"

// FieldError a rejected field and the reason, nested in REST validation errors
type FieldError struct {
	Domain string `json:"domain"`
	Reason string `json:"reason"`
}

// NewFieldError create new field error
func NewFieldError(domain string, reason string) *FieldError {
	return &FieldError{domain, reason}
}

func (fe *FieldError) Error() string {
	if fe.Domain == "" {
		return fe.Reason
	}
	return fe.Domain + ": " + fe.Reason
}

// FieldErrors all fields rejected by one check, nil when the input is valid
type FieldErrors []*FieldError

func (fes FieldErrors) Error() string {
	msg := make([]string, len(fes))
	for i, fe := range fes {
		msg[i] = fe.Error()
	}
	return strings.Join(msg, "; ")
}

// Validator checks return nil on success so results can be appended to each other
type Validator interface {
	Struct(s interface{}) FieldErrors
	Var(varName string, s interface{}, tag string) FieldErrors
	Empty(varName string, s interface{}) FieldErrors
	AllEmpty(names []string, fields ...interface{}) FieldErrors
}
