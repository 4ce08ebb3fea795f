package config

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vango-dev/patchwire/internal/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		if err := validate.RegisterValidation("duration", validateDuration); err != nil {
			panic(err)
		}
	})
	return validate
}

// validateDuration accepts strings time.ParseDuration understands.
func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d >= 0
}

// Validate checks the configuration. A missing or short secret is reported
// as P003, every other problem as P002 listing the offending fields.
func (c *Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.New("P002").Wrap(err)
	}

	var lines []string
	for _, fe := range fieldErrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if field == "secret" {
			return errors.New("P003").
				WithSuggestion("Set " + EnvSecret + " or add \"secret\" to the config file")
		}
		lines = append(lines, fmt.Sprintf("%s: %s", field, describe(fe)))
	}
	return errors.New("P002").WithDetail(strings.Join(lines, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "duration":
		return "must be a duration such as 10s"
	case "hostname_port":
		return "must be host:port"
	case "url":
		return "must be a URL"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
