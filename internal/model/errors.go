package model

import (
	"errors"
)

var (
	ErrExec     = errors.New("lighthouse execution failed")
	ErrParse    = errors.New("lighthouse output not parsable")
	ErrNoAudits = errors.New("no audits in lighthouse report")
)
