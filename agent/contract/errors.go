package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")
	ErrAmbiguous       = errors.New("multiple records match")
	ErrNotFound        = errors.New("no record matches")
	ErrDuplicate       = errors.New("record already exists")
)
