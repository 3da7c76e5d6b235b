package service

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mtlprog/teamtask/internal/domain"
	"github.com/mtlprog/teamtask/internal/store"
)

// Validator checks operation parameters against the field limits of the data model.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the task enum rules registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("task_status", validateTaskStatus)
	_ = v.RegisterValidation("task_priority", validateTaskPriority)
	_ = v.RegisterValidation("task_sort", validateTaskSort)
	_ = v.RegisterValidation("assignee_id", validateAssigneeID)

	return &Validator{validate: v}
}

// Struct validates params and converts failures into *domain.ValidationError.
func (v *Validator) Struct(params any) error {
	err := v.validate.Struct(params)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate params: %w", err)
	}

	verr := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), formatValidationError(fe))
	}
	return verr
}

func validateTaskStatus(fl validator.FieldLevel) bool {
	return domain.TaskStatus(fl.Field().String()).IsValid()
}

func validateTaskPriority(fl validator.FieldLevel) bool {
	return domain.TaskPriority(fl.Field().String()).IsValid()
}

func validateTaskSort(fl validator.FieldLevel) bool {
	return slices.Contains(store.SortFields, strings.TrimPrefix(fl.Field().String(), "-"))
}

// validateAssigneeID accepts a UUID, or "" meaning no assignee.
func validateAssigneeID(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v == "" || uuid.Validate(v) == nil
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "uuid":
		return "invalid UUID format"
	case "task_status":
		return fmt.Sprintf("must be one of %s", joinStatuses())
	case "task_priority":
		return "must be one of Low, Medium, High, Critical"
	case "assignee_id":
		return "must be a user UUID, or empty to unassign"
	case "task_sort":
		return "must be one of " + strings.Join(store.SortFields, ", ") + ", optionally prefixed with -"
	default:
		return "invalid value"
	}
}

func joinStatuses() string {
	names := make([]string, len(domain.TaskStatuses))
	for i, s := range domain.TaskStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
