package domain

import "errors"

var (
	ErrNotFound        = errors.New("project technical data not found")
	ErrSectionNotFound = errors.New("section not found")
	ErrFieldNotFound   = errors.New("field not found")
	ErrVersionNotFound = errors.New("version not found")
	ErrFixedSection    = errors.New("fixed section cannot be removed")
	ErrDuplicateID     = errors.New("duplicate id")
)
