package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"

	apierrors "ventaperdida/internal/errors"
	"ventaperdida/pkg/contracts/domain"
)

// QueryValidator decodes query parameters into request structs and
// validates them using struct tags.
type QueryValidator struct {
	validator *validator.Validate
	logger    *slog.Logger
}

// NewQueryValidator creates a query validator with the report validators registered
func NewQueryValidator(logger *slog.Logger) *QueryValidator {
	v := validator.New()

	if err := v.RegisterValidation("weekkey", isWeekKey); err != nil {
		panic(fmt.Sprintf("register weekkey validator: %v", err))
	}
	if err := v.RegisterValidation("dimensions", isDimensionList); err != nil {
		panic(fmt.Sprintf("register dimensions validator: %v", err))
	}

	// Use query tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &QueryValidator{
		validator: v,
		logger:    logger.With(slog.String("component", "query_validator")),
	}
}

// Decode fills dst, a pointer to a struct, from r's query string and
// validates it. The returned error is an *APIError.
func (q *QueryValidator) Decode(r *http.Request, dst interface{}) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a struct pointer, got %T", dst)
	}
	if err := decodeValues(r.URL.Query(), dst); err != nil {
		q.logger.DebugContext(r.Context(), "Query decoding failed",
			slog.String("query", r.URL.RawQuery),
			slog.String("error", err.Error()))
		return err
	}
	return q.ValidateStruct(dst)
}

// ValidateStruct validates a struct and returns validation errors
func (q *QueryValidator) ValidateStruct(v interface{}) error {
	err := q.validator.Struct(v)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.ErrInvalidRequest
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

// queryDecoder binds url.Values by `query` tag; embedded structs share the
// top-level namespace.
var queryDecoder = func() *form.Decoder {
	d := form.NewDecoder()
	d.SetTagName("query")
	return d
}()

func decodeValues(values url.Values, dst interface{}) error {
	trimmed := make(url.Values, len(values))
	for k, vs := range values {
		for _, v := range vs {
			trimmed.Add(k, strings.TrimSpace(v))
		}
	}

	err := queryDecoder.Decode(dst, trimmed)
	if err == nil {
		return nil
	}
	decodeErrs, ok := err.(form.DecodeErrors)
	if !ok || len(decodeErrs) == 0 {
		return apierrors.ErrInvalidRequest
	}
	names := make([]string, 0, len(decodeErrs))
	for name := range decodeErrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return apierrors.InvalidParameter(names[0], trimmed.Get(names[0]))
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "weekkey":
		return fmt.Sprintf("%s must be an accounting week such as 202427", field)
	case "dimensions":
		return fmt.Sprintf("%s must be a comma separated list of: %s", field, strings.Join(dimensionNames(), ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// Custom validators

// isWeekKey accepts YYYYWW and the five digit YYYYW form.
func isWeekKey(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 5 && len(s) != 6 {
		return false
	}
	if _, err := strconv.Atoi(s); err != nil {
		return false
	}
	week, _ := strconv.Atoi(s[4:])
	return week >= 1 && week <= 53
}

func isDimensionList(fl validator.FieldLevel) bool {
	_, ok := domain.ParseDimensions(fl.Field().String())
	return ok
}

var allDimensions = []domain.Dimension{
	domain.DimDay, domain.DimWeek, domain.DimMonth, domain.DimProvider, domain.DimPlaza,
	domain.DimCategory, domain.DimDivision, domain.DimMarket, domain.DimArticle,
	domain.DimDescription, domain.DimFamily, domain.DimSegment, domain.DimStore,
}

func dimensionNames() []string {
	names := make([]string, len(allDimensions))
	for i, d := range allDimensions {
		names[i] = string(d)
	}
	return names
}
