package api

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	studentIDPattern = regexp.MustCompile(`^[0-9]{4}/[0-9]{6}$`)
	ngPhonePattern   = regexp.MustCompile(`^(\+234|0)[789][01]\d{8}$`)

	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators installs the custom binding tags on gin's validator and
// reports fields by their JSON names.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		if err := v.RegisterValidation("studentid", func(fl validator.FieldLevel) bool {
			return studentIDPattern.MatchString(strings.TrimSpace(fl.Field().String()))
		}); err != nil {
			registerErr = err
			return
		}
		registerErr = v.RegisterValidation("ngphone", func(fl validator.FieldLevel) bool {
			return ngPhonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
		})
	})
	return registerErr
}
