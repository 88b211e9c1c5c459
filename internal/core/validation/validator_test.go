package validation

import "testing"

var itemSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"title": map[string]interface{}{"type": "string"},
		"count": map[string]interface{}{"type": "number"},
	},
	"required":             []interface{}{"title"},
	"additionalProperties": false,
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(map[string]interface{}{"title": "ok", "count": 3.0}, itemSchema); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}

	err := v.Validate(map[string]interface{}{"title": "ok", "extra": true}, itemSchema)
	if !IsValidationError(err) {
		t.Errorf("additional property should be rejected, got %v", err)
	}

	err = v.Validate(map[string]interface{}{"count": 3.0}, itemSchema)
	if !IsValidationError(err) {
		t.Errorf("missing required field should be rejected, got %v", err)
	}

	err = v.Validate(map[string]interface{}{"title": 7}, itemSchema)
	if !IsValidationError(err) {
		t.Errorf("wrong type should be rejected, got %v", err)
	}
}

func TestValidate_EmptySchemaAcceptsAnything(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(map[string]interface{}{"anything": true}, nil); err != nil {
		t.Errorf("nil schema should validate, got %v", err)
	}
}

func TestValidate_NilDataIsEmptyObject(t *testing.T) {
	v := NewValidator()

	optional := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title": map[string]interface{}{"type": "string"},
		},
	}
	if err := v.Validate(nil, optional); err != nil {
		t.Errorf("nil data should validate against a schema with no required fields, got %v", err)
	}

	if err := v.Validate(nil, itemSchema); !IsValidationError(err) {
		t.Errorf("nil data should still fail required constraints, got %v", err)
	}
}

func TestValidatePartial_DropsRequired(t *testing.T) {
	v := NewValidator()

	if err := v.ValidatePartial(map[string]interface{}{"count": 5.0}, itemSchema); err != nil {
		t.Errorf("partial update without required field should pass, got %v", err)
	}

	err := v.ValidatePartial(map[string]interface{}{"count": "five"}, itemSchema)
	if !IsValidationError(err) {
		t.Errorf("type constraints still apply to partial updates, got %v", err)
	}
}

func TestGetValidationErrors(t *testing.T) {
	v := NewValidator()
	err := v.Validate(map[string]interface{}{"title": 7}, itemSchema)

	ve := GetValidationErrors(err)
	if ve == nil || len(ve.Errors) == 0 {
		t.Fatal("expected extractable validation errors")
	}
	if ve.Errors[0].Field == "" {
		t.Error("validation error should name the failing field")
	}
}
