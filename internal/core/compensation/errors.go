package compensation

import "errors"

var ErrNoEmployees = errors.New("compensation: no employees to analyze")
