// Package drm implements the kernel-mode-setting object model and
// atomic-commit engine used by a display-driver server. It tracks the
// hardware display pipeline as a graph of mode objects (connectors,
// encoders, CRTCs, planes, framebuffers), accepts atomic configuration
// transactions, serializes them against in-flight hardware updates, and
// delivers completion events back to client sessions.
//
// Actual register programming is delegated to a device-specific
// Backend. The package itself only manages object state, transaction
// ordering, and the per-session buffer-handle namespace.
package drm
