package domain

import "errors"

var (
	ErrDeckNotFound      = errors.New("deck not found")
	ErrFlashcardNotFound = errors.New("flashcard not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrSourceNotFound    = errors.New("source not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameTaken     = errors.New("username already taken")
)
