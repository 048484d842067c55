package employee

import "errors"

var (
	ErrInvalidSSID        = errors.New("employee: invalid ssid")
	ErrInvalidName        = errors.New("employee: invalid name")
	ErrInvalidExperience  = errors.New("employee: invalid experience years")
	ErrInvalidSalary      = errors.New("employee: invalid salary")
	ErrInvalidRevenue     = errors.New("employee: invalid revenue")
	ErrInvalidPerformance = errors.New("employee: invalid performance")
	ErrInvalidStatus      = errors.New("employee: invalid status")
	ErrNotFound           = errors.New("employee: not found")
)
