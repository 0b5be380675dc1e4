package office

import "errors"

var (
	ErrOfficeNotConfigured = errors.New("office location is not configured")
)
