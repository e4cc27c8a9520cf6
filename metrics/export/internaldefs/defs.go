package internaldefs

import (
	authgate "github.com/MrEthical07/authgate"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs is the full exported counter set, in engine order.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricSignupSuccess, Name: "authgate_signup_success_total", Help: "Accounts created."},
	{ID: authgate.MetricSignupDuplicate, Name: "authgate_signup_duplicate_total", Help: "Signups rejected for an in-use email."},
	{ID: authgate.MetricVerifySuccess, Name: "authgate_verify_success_total", Help: "Completed email verifications."},
	{ID: authgate.MetricVerifyFailure, Name: "authgate_verify_failure_total", Help: "Rejected verification tokens."},
	{ID: authgate.MetricSigninSuccess, Name: "authgate_signin_success_total", Help: "Successful credential checks."},
	{ID: authgate.MetricSigninFailure, Name: "authgate_signin_failure_total", Help: "Failed credential checks."},
	{ID: authgate.MetricSigninLocked, Name: "authgate_signin_locked_total", Help: "Signins rejected by an active lockout."},
	{ID: authgate.MetricLockoutTriggered, Name: "authgate_lockout_triggered_total", Help: "Accounts transitioned to locked."},
	{ID: authgate.MetricRefreshSuccess, Name: "authgate_refresh_success_total", Help: "Successful access-token renewals."},
	{ID: authgate.MetricRefreshFailure, Name: "authgate_refresh_failure_total", Help: "Rejected refresh tokens."},
	{ID: authgate.MetricSignout, Name: "authgate_signout_total", Help: "Refresh tokens revoked via signout."},
	{ID: authgate.MetricResetRequest, Name: "authgate_reset_request_total", Help: "Password reset tokens issued."},
	{ID: authgate.MetricResetSuccess, Name: "authgate_reset_success_total", Help: "Completed password resets."},
	{ID: authgate.MetricResetFailure, Name: "authgate_reset_failure_total", Help: "Rejected reset tokens."},
	{ID: authgate.MetricIntrospectActive, Name: "authgate_introspect_active_total", Help: "Introspections reporting an active token."},
	{ID: authgate.MetricIntrospectInactive, Name: "authgate_introspect_inactive_total", Help: "Introspections reporting an inactive token."},
	{ID: authgate.MetricExternalLink, Name: "authgate_external_link_total", Help: "Provider identities linked or upserted."},
}

// HistogramDefs is the full exported histogram set.
var HistogramDefs = []HistogramDef{
	{ID: authgate.MetricSigninLatency, Name: "authgate_signin_latency_seconds", Help: "Signin latency histogram."},
}

// HistogramBounds are the fixed upper bounds, in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix mirrors HistogramBounds with label-safe names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to a cumulative series.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
