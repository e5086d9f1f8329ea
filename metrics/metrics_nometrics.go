//go:build nometrics

package metrics

import "net/http"

func RecordCommit(string) {}
func RecordConservationCheck(string, bool) {}
func RecordBudget(string, bool) {}
func RecordWitness(string, bool) {}
func RecordClusterBuild(string, float64) {}
func RecordWindow() {}

// Handler reports that metrics were compiled out.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "metrics disabled at build time", http.StatusNotFound)
	})
}
