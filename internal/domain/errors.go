package domain

import "errors"

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrVersionConflict     = errors.New("account was modified concurrently")
	ErrSessionTooShort     = errors.New("session too short")
	ErrDetectorRunning     = errors.New("detector already running")
	ErrDetectorStopped     = errors.New("detector not running")
	ErrDetectorStopTimeout = errors.New("detector did not exit in time")
)
