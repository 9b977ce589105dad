package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrRecordNotFound = errors.New("record not found or expired")
	ErrOptionNotFound = errors.New("option not found")
	ErrLinkNotFound   = errors.New("no valid link for this user and redirect")
	ErrNotInstalled   = errors.New("autologin endpoint is not installed")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
)

type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
