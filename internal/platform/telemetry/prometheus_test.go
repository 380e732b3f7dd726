package telemetry_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jsamuelsen11/todo-resource-service/internal/platform/telemetry"
)

func TestNewStoreMetrics_Registers(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := telemetry.NewStoreMetrics(reg)

	m.OperationsTotal.WithLabelValues("get", "store:memory", "success").Inc()
	m.OperationDuration.WithLabelValues("get", "store:memory", "success").Observe(0.01)

	want := `
# HELP todo_store_operations_total Total number of todo store operations
# TYPE todo_store_operations_total counter
todo_store_operations_total{backend="store:memory",operation="get",result="success"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "todo_store_operations_total"); err != nil {
		t.Errorf("GatherAndCompare: %v", err)
	}

	if n := testutil.CollectAndCount(m.OperationDuration); n != 1 {
		t.Errorf("OperationDuration series = %d, want 1", n)
	}
}

func TestNewStoreMetrics_DuplicatePanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	telemetry.NewStoreMetrics(reg)

	defer func() {
		if recover() == nil {
			t.Error("second NewStoreMetrics on same registry did not panic")
		}
	}()
	telemetry.NewStoreMetrics(reg)
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	reg, m := telemetry.NewRegistry()
	if m == nil {
		t.Fatal("NewRegistry returned nil StoreMetrics")
	}
	m.OperationsTotal.WithLabelValues("list", "store:memory", "success").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	seen := map[string]bool{}
	for _, f := range families {
		seen[f.GetName()] = true
	}
	for _, name := range []string{"todo_store_operations_total", "go_goroutines"} {
		if !seen[name] {
			t.Errorf("metric family %q not gathered", name)
		}
	}
}
