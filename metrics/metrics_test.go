//go:build !nometrics

package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksRespectToggle(t *testing.T) {
	Enable(false)
	before := testutil.ToFloat64(commits.WithLabelValues("OK"))
	RecordCommit("OK")
	assert.Equal(t, before, testutil.ToFloat64(commits.WithLabelValues("OK")), "disabled hooks must not record")

	Enable(true)
	defer Enable(false)
	RecordCommit("OK")
	assert.Equal(t, before+1, testutil.ToFloat64(commits.WithLabelValues("OK")))
}

func TestRecordLabels(t *testing.T) {
	Enable(true)
	defer Enable(false)

	RecordBudget("alloc", false)
	RecordConservationCheck("attach", true)
	RecordWitness("verify", true)
	RecordWindow()

	assert.GreaterOrEqual(t, testutil.ToFloat64(budgetOps.WithLabelValues("alloc", "fail")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(conservationChecks.WithLabelValues("attach", "ok")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(witnessOps.WithLabelValues("verify", "ok")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(windowsOpened), 1.0)
}

func TestHandlerExposesRegistry(t *testing.T) {
	Enable(true)
	defer Enable(false)
	RecordClusterBuild("serial", 0.0002)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "resonance_cluster_build_duration_seconds"), body)
}
