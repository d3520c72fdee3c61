package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// PlaygroundV10 Validator implementation using go-playground
type PlaygroundV10 struct {
	core  *validator.Validate
	trans ut.Translator
}

var _ Validator = &PlaygroundV10{}

// NewValidator create a new Validator, messages are translated with locale ("en" or "zh")
func NewValidator(locale ...string) *PlaygroundV10 {
	enLocale := en.New()
	zhLocale := zh.New()
	uni := ut.New(enLocale, enLocale, zhLocale)

	validate := validator.New()
	lang := "en"
	if len(locale) > 0 && locale[0] == "zh" {
		lang = "zh"
	}
	trans, _ := uni.GetTranslator(lang)
	if lang == "zh" {
		zh_translations.RegisterDefaultTranslations(validate, trans)
	} else {
		en_translations.RegisterDefaultTranslations(validate, trans)
	}
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			name = fld.Tag.Get("yaml")
			if name == "-" || name == "" {
				return ""
			}
		}
		return name
	})
	return &PlaygroundV10{
		core:  validate,
		trans: trans,
	}
}

// Struct validate struct
func (v PlaygroundV10) Struct(s interface{}) FieldErrors {
	var result FieldErrors
	if err := v.core.Struct(s); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return FieldErrors{NewFieldError("", err.Error())}
		}
		for _, item := range errs {
			result = append(result, NewFieldError(item.Field(), item.Translate(v.trans)))
		}
		return result
	}
	return nil
}

// Var validate a single value against tag, eg. "required,min=1"
func (v PlaygroundV10) Var(varName string, s interface{}, tag string) FieldErrors {
	var result FieldErrors
	if err := v.core.Var(s, tag); err != nil {
		for _, item := range err.(validator.ValidationErrors) {
			msg := strings.TrimSpace(strings.Replace(item.Translate(v.trans), item.Field(), varName, 1))
			result = append(result, NewFieldError(varName, msg))
		}
		return result
	}
	return nil
}

// Empty check if value is empty
func (v PlaygroundV10) Empty(varName string, s interface{}) FieldErrors {
	var result FieldErrors
	if err := v.core.Var(s, "required"); err != nil {
		for range err.(validator.ValidationErrors) {
			msg := fmt.Sprintf("%s is required", varName)
			result = append(result, NewFieldError(varName, msg))
		}
		return result
	}
	return nil
}

// AllEmpty check if all fields are empty
//
// names and fields have one to one relationship respect to the order
func (v PlaygroundV10) AllEmpty(names []string, fields ...interface{}) FieldErrors {
	if len(names) != len(fields) {
		panic(fmt.Errorf("number of name: %d, fields: %d", len(names), len(fields)))
	}

	for _, s := range fields {
		if err := v.core.Var(s, "required"); err == nil {
			return nil
		}
	}
	return FieldErrors{NewFieldError(strings.Join(names, ","), "One of the fields should not be empty")}
}
