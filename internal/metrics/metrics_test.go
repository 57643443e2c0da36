package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue returns the value of the counter called name whose labels include want.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v != lp.GetValue() {
					continue metric
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestRecordPolicyDecision_LabelsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPolicyDecision("employee", "read", true)
	c.RecordPolicyDecision("employee", "read", false)
	c.RecordPolicyDecision("employee", "read", false)

	assert.Equal(t, 1.0, counterValue(t, reg, "timetracker_policy_decisions_total", map[string]string{"outcome": "allow"}))
	assert.Equal(t, 2.0, counterValue(t, reg, "timetracker_policy_decisions_total", map[string]string{"outcome": "deny"}))
}

func TestRecordTokenFailure_ByReason(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTokenFailure("expired")
	c.RecordTokenFailure("malformed")
	c.RecordTokenFailure("expired")

	assert.Equal(t, 2.0, counterValue(t, reg, "timetracker_token_failures_total", map[string]string{"reason": "expired"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "timetracker_token_failures_total", map[string]string{"reason": "malformed"}))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPStatus(http.StatusForbidden)
	c.RecordLogin("success")

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `timetracker_http_status_total{status_code="403"} 1`)
	assert.Contains(t, string(body), `timetracker_logins_total{outcome="success"} 1`)
}

func TestNop_SatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordPolicyDecision("company", "list", false)
	r.RecordStaleEntries(3)
}
