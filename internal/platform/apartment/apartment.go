// Package apartment implements C11's single-threaded-apartment probe used
// to gate the platform-wrapper H.264 backend (spec §4.6 step 3: "reject
// the platform wrapper encoder under STA"). Only Windows has a COM
// apartment model; everywhere else the probe always reports MTA so the
// wrapper backend is never excluded on those platforms for this reason.
package apartment

// Probe reports the current thread's COM apartment mode. It satisfies
// internal/video/encoder.ApartmentProbe.
type Probe struct{}

// New returns a Probe for the current platform.
func New() Probe { return Probe{} }
