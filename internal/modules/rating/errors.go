package rating

import "errors"

var (
	// ErrInvalidCategory is returned when a quality category has no parameter table.
	ErrInvalidCategory = errors.New("invalid feedstock category")

	// ErrInvalidCertification is returned when a certification name cannot be parsed.
	ErrInvalidCertification = errors.New("invalid certification tier")

	// ErrInvalidStandards is returned when weights or tables fail validation.
	ErrInvalidStandards = errors.New("invalid scoring standards")
)
