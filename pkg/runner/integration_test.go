package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ritzau/gardener-conformance/pkg/catalog"
	"github.com/ritzau/gardener-conformance/pkg/gateway"
	"github.com/ritzau/gardener-conformance/pkg/scenario"
)

// TestIntegration runs every suite against a real include gardener binary.
//
//	GARDENER_BIN=../include_gardener/build/include_gardener \
//	GARDENER_TESTDATA=../include_gardener/test/test_files go test ./pkg/runner
func TestIntegration(t *testing.T) {
	bin := os.Getenv("GARDENER_BIN")
	testdata := os.Getenv("GARDENER_TESTDATA")
	if bin == "" || testdata == "" {
		t.Skip("GARDENER_BIN and GARDENER_TESTDATA not set")
	}
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	r := New(gateway.New(gateway.NewExecutor(bin)), catalog.Default(), Options{
		Analyzer: bin,
		Trees: map[scenario.Language]string{
			scenario.LanguageC:      filepath.Join(testdata, "c"),
			scenario.LanguagePython: filepath.Join(testdata, "py", "graph_test_files"),
			scenario.LanguageRuby:   filepath.Join(testdata, "rb"),
		},
	})

	report := r.Run(context.Background())
	for _, c := range report.Cases {
		switch c.Status {
		case Failed:
			t.Errorf("%s: %s", c.ID(), c.Message)
		case Skipped:
			t.Logf("%s skipped: %s", c.ID(), c.Message)
		}
	}
}
