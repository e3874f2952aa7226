package validator

// Validator validates input structs using `validate` struct tags.
type Validator interface {
	// Validate returns nil when data is valid, otherwise a V10ValidationError
	// (or the underlying error for non-struct input).
	Validate(data any) error
}
