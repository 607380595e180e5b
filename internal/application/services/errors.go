package services

import (
	"errors"
	"fmt"
)

var (
	ErrAuth             = errors.New("authentication failed")
	ErrStorageWrite     = errors.New("storage write failed")
	ErrRecordInsert     = errors.New("record insert failed")
	ErrCodeCollision    = fmt.Errorf("download code collision: %w", ErrRecordInsert)
	ErrCodeExhausted    = fmt.Errorf("no free download code: %w", ErrCodeCollision)
	ErrCodeNotFound     = errors.New("download code not found")
	ErrRecordLookup     = errors.New("record lookup failed")
	ErrSignedURL        = errors.New("signed url failed")
	ErrTransfer         = errors.New("file transfer failed")
	ErrLocalPersistence = errors.New("local persistence failed")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
)
