package shared

// DomainError is a coded error raised by domain rules and repositories
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on Code so wrapped errors compare equal to the sentinels below
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

var (
	// ErrNotFound is returned when no contact matches a lookup
	ErrNotFound = NewDomainError("NOT_FOUND", "Contact not found")
	// ErrAlreadyExists is returned when a tenant already has a contact for the
	// same gateway customer
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Contact already exists for this customer")
	// ErrConcurrencyConflict is returned when a conditional write lost the race
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Contact was modified by another writer")
)
