package service

import "errors"

var (
	ErrNotStarted      = errors.New("service not started")
	ErrMissingGameID   = errors.New("pick has no game id")
	ErrBackpressure    = errors.New("pick queue is full")
	ErrEmptyBatch      = errors.New("batch is empty")
	ErrBatchTooLarge   = errors.New("batch exceeds maximum size")
	ErrArchiveDisabled = errors.New("archive is not configured")
)
