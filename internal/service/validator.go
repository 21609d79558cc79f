package service

import (
	"fmt"
	"unicode/utf8"

	"github.com/utafrali/quicksearch/internal/domain"
	apperrors "github.com/utafrali/quicksearch/pkg/errors"
)

// ValidatedQuery is query text that passed length validation.
type ValidatedQuery struct {
	Text string
}

// QueryValidator enforces the configured query length bounds. Length is
// counted in characters, not bytes.
type QueryValidator struct {
	minLength int
	maxLength int
}

// NewQueryValidator returns a validator accepting minLength..maxLength
// characters.
func NewQueryValidator(minLength, maxLength int) *QueryValidator {
	return &QueryValidator{minLength: minLength, maxLength: maxLength}
}

// Validate returns the text unchanged when its length is within bounds.
func (v *QueryValidator) Validate(text string) (ValidatedQuery, error) {
	n := utf8.RuneCountInString(text)
	if n > v.maxLength {
		return ValidatedQuery{}, apperrors.InvalidInputCode("QUERY_TOO_LONG",
			fmt.Sprintf("Maximum Search query length is %d", v.maxLength), domain.ErrQueryTooLong)
	}
	if n < v.minLength {
		return ValidatedQuery{}, apperrors.InvalidInputCode("QUERY_TOO_SHORT",
			fmt.Sprintf("Minimum Search query length is %d", v.minLength), domain.ErrQueryTooShort)
	}
	return ValidatedQuery{Text: text}, nil
}
