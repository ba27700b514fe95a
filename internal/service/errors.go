package service

import "errors"

// 业务错误，由传输层映射为 HTTP 状态码
var (
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrAlreadySubscribed  = errors.New("email already subscribed")
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrInvalidSubscriber  = errors.New("invalid subscriber data")
	ErrMissingFields      = errors.New("all fields are required")
	ErrMessageTooShort    = errors.New("message too short")
	ErrInvalidContact     = errors.New("invalid contact data")
	ErrFieldTooLong       = errors.New("field too long")
	ErrContactNotFound    = errors.New("contact not found")
)
