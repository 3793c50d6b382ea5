package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	appErrors "archflow-backend/pkg/errors"
)

// The package shares one validator instance; construction registers the
// JSON tag name function so violations reference wire field names.
var (
	validateInstance *validator.Validate
	validateOnce     sync.Once
)

func schemaValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validateInstance = v
	})
	return validateInstance
}

// ValidateState checks a state against the structural contract: required
// ids and labels, enum membership for kinds. Every violation found is
// reported, not just the first.
func ValidateState(s *State) error {
	if s == nil {
		return appErrors.NewValidationError("graph state is required")
	}
	if err := schemaValidator().Struct(s); err != nil {
		return appErrors.NewSchemaError("invalid graph state", violationMessages(err))
	}
	return nil
}

// ValidateDelta checks a delta against the structural contract. Absent
// sections are fine; present entries must carry required fields and valid
// enum values. Every violation found is reported.
func ValidateDelta(d *Delta) error {
	if d == nil {
		return appErrors.NewValidationError("graph delta is required")
	}
	if err := schemaValidator().Struct(d); err != nil {
		return appErrors.NewSchemaError("invalid delta structure", violationMessages(err))
	}
	return nil
}

// ValidateNode checks a single node against the structural contract.
func ValidateNode(n *Node) error {
	if n == nil {
		return appErrors.NewValidationError("node is required")
	}
	if err := schemaValidator().Struct(n); err != nil {
		return appErrors.NewSchemaError("invalid node", violationMessages(err))
	}
	return nil
}

// ValidateEdge checks a single edge against the structural contract.
func ValidateEdge(e *Edge) error {
	if e == nil {
		return appErrors.NewValidationError("edge is required")
	}
	if err := schemaValidator().Struct(e); err != nil {
		return appErrors.NewSchemaError("invalid edge", violationMessages(err))
	}
	return nil
}

// DecodeState unmarshals and validates a raw state document. Type
// mismatches surface as field-keyed violations, the same shape schema
// failures produce.
func DecodeState(raw []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, decodeError("invalid graph state", err)
	}
	if err := ValidateState(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// DecodeDelta unmarshals and validates a raw delta document. Unknown
// object keys are tolerated; model output often carries extras.
func DecodeDelta(raw []byte) (*Delta, error) {
	var d Delta
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, decodeError("invalid delta structure", err)
	}
	if err := ValidateDelta(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// decodeError folds unmarshal failures into the violation shape. Type
// errors name the offending wire field; anything else is reported as-is.
func decodeError(message string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "document"
		}
		return appErrors.NewSchemaError(message, []string{
			fmt.Sprintf("%s has wrong type: got %s", field, typeErr.Value),
		}).WithCause(err)
	}
	return appErrors.NewSchemaError(message, []string{err.Error()}).WithCause(err)
}

// violationMessages flattens validator errors into one message per failed
// field, keyed by the JSON path of the offending value.
func violationMessages(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, violationMessage(e))
	}
	return msgs
}

func violationMessage(e validator.FieldError) string {
	field := fieldPath(e)
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(e.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, e.Tag())
	}
}

// fieldPath strips the root struct name from the namespace so messages
// read as wire paths, e.g. "addNodes[0].kind".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
