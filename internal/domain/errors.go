package domain

import "errors"

var (
	ErrQueryTooShort    = errors.New("query too short")
	ErrQueryTooLong     = errors.New("query too long")
	ErrIndexUnavailable = errors.New("search index unavailable")
	ErrStoreUnavailable = errors.New("product store unavailable")
	ErrRenderingFailure = errors.New("rendering failure")
	ErrUnknownStore     = errors.New("unknown store")
	ErrScopeReleased    = errors.New("environment scope already released")
	ErrUnknownStrategy  = errors.New("unknown price strategy")
	ErrNoEnvironment    = errors.New("no storefront environment in context")
	ErrInvalidProduct   = errors.New("invalid product")
)
