package dto

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"reviewhub/internal/shared"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	registerOnce    sync.Once
)

// RegisterValidators adds the "username" and "slug" tags to gin's validator
// and reports fields by their json names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("username", validateUsername)
		_ = v.RegisterValidation("slug", validateSlug)
	})
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}

func validateSlug(fl validator.FieldLevel) bool {
	return shared.IsValidSlug(fl.Field().String())
}

// ValidUsername applies the username rule outside of request binding.
func ValidUsername(s string) bool {
	return s != "" && len(s) <= 150 && usernamePattern.MatchString(s)
}
