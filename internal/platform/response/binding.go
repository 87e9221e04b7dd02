package response

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"course-studio/internal/platform/apierr"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// UseFieldTags makes validator report fields under their json/form names
// instead of Go struct field names.
func UseFieldTags() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

func init() {
	UseFieldTags()
}

// BindErrors splits a ShouldBind error into per-field messages. ok is false
// when the error is not a validation failure (malformed body and the like).
func BindErrors(err error) (apierr.FieldErrors, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	out := apierr.FieldErrors{}
	for _, fe := range verrs {
		out.Add(fe.Field(), messageFor(fe))
	}
	return out, true
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "url", "http_url":
		return "Enter a valid URL."
	case "gt":
		return "Select a valid choice."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}
