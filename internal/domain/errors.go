package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrRateLimited    = errors.New("rate limited")
	ErrInvalidMarket  = errors.New("invalid market")
	ErrInvalidOdds    = errors.New("invalid odds")
	ErrInvalidStake   = errors.New("invalid stake")
	ErrCooldownActive = errors.New("cooldown active")
	ErrContextDone    = errors.New("context cancelled")
)
