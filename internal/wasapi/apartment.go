package wasapi

// InitApartment initializes the calling OS thread's COM apartment.
// Every thread that touches a WASAPI client must call this exactly
// once before use (spec.md §5 "COM apartment"). alreadyInitialized is
// true when CoInitializeEx reported the thread was already in the
// same apartment mode, or had its mode changed by an earlier caller —
// both are treated as success, logged rather than failed.
//
// This package-level variable is overridden by the real Windows
// implementation (apartment_windows.go); the default here is the
// cross-platform/test stub used by internal/wasapitest-backed builds.
var InitApartment = func() (alreadyInitialized bool, err error) { return false, nil }

// UninitApartment releases the COM apartment acquired by
// InitApartment. Called once, on inner-loop exit.
var UninitApartment = func() {}

// RaiseProAudioPriority raises the calling (inner-loop) thread to the
// "Pro Audio" MMCSS scheduling class (spec.md glossary "Pro Audio
// task"), via avrt.dll's AvSetMmThreadCharacteristicsW on the real
// Windows implementation. A failure here is not fatal — it only
// affects scheduling latency, not correctness — so the real
// implementation logs and continues rather than surfacing an error;
// the default stub here is a no-op for non-Windows/test builds.
var RaiseProAudioPriority = func() {}
