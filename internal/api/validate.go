package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"ridematch/internal/model"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationDetail flattens validator errors into one readable line.
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// bind decodes and validates a request body, writing a problem response and
// returning false on failure.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(r, v); err != nil {
		writeValidationProblem(w, r, "Invalid JSON", err.Error())
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeValidationProblem(w, r, "Validation failed", validationDetail(err))
		return false
	}
	return true
}

func writeValidationProblem(w http.ResponseWriter, r *http.Request, title, detail string) {
	writeJSON(w, http.StatusBadRequest, Problem{
		Type:        "about:blank",
		Title:       title,
		Status:      http.StatusBadRequest,
		Detail:      detail,
		Instance:    r.URL.Path,
		MatchStatus: model.StatusValidationError,
	})
}
