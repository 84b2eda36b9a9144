// pkg/verify/types.go

package verify

import "context"

// Status is a probe outcome.
type Status string

const (
	StatusOK   Status = "OK"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

// ProbeResult is one read-only diagnostic outcome. Results are accumulated
// in probe order and printed as a flat report; nothing persists beyond the
// run.
type ProbeResult struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail"`
}

// Probe is a single independent, read-only check. A probe never mutates
// system state and its outcome never gates another probe.
type Probe struct {
	Name string
	Run  func(ctx context.Context) ProbeResult
}

// Options selects what the verifier inspects.
type Options struct {
	Domain      string
	AppPort     int
	SiteName    string
	AppDir      string
	ProcessName string
	AppEntry    string
	SSL         bool
	SupabaseURL string
}

// ok, warn, and fail are result constructors used by every probe.
func ok(name, detail string) ProbeResult {
	return ProbeResult{Name: name, Status: StatusOK, Detail: detail}
}

func warn(name, detail string) ProbeResult {
	return ProbeResult{Name: name, Status: StatusWarn, Detail: detail}
}

func fail(name, detail string) ProbeResult {
	return ProbeResult{Name: name, Status: StatusFail, Detail: detail}
}
