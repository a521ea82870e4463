package drm

import "errors"

// Standard errors returned by the drm core.
var (
	// ErrNotFound is returned when an object, handle, blob, or export
	// credential does not resolve.
	ErrNotFound = errors.New("drm: no such object")

	// ErrWouldBlock is returned by File.Read in non-blocking mode when
	// no events are pending. It is a normal outcome, not a failure.
	ErrWouldBlock = errors.New("drm: operation would block")

	// ErrInvalidProperty is returned by Configuration.Capture when a
	// property is not applicable to the targeted object.
	ErrInvalidProperty = errors.New("drm: property not applicable to object")

	// ErrInvalidValue is returned by Configuration.Capture when a value
	// lies outside the property's domain.
	ErrInvalidValue = errors.New("drm: property value out of domain")

	// ErrUnsupportedFormat is returned for pixel formats the core knows
	// nothing about.
	ErrUnsupportedFormat = errors.New("drm: unsupported pixel format")

	// ErrInvalidArgument is returned for malformed requests, such as a
	// framebuffer whose pitch cannot hold its declared width.
	ErrInvalidArgument = errors.New("drm: invalid argument")
)
