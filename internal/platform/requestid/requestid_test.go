package requestid_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jsamuelsen11/todo-resource-service/internal/platform/requestid"
)

func TestHeaders(t *testing.T) {
	t.Parallel()

	bg := context.Background()

	tests := []struct {
		name string
		ctx  context.Context
		want map[string]string
	}{
		{name: "none", ctx: bg, want: map[string]string{}},
		{name: "request only", ctx: requestid.With(bg, "req-1"), want: map[string]string{"X-Request-ID": "req-1"}},
		{
			name: "both",
			ctx:  requestid.WithCorrelation(requestid.With(bg, "req-1"), "corr-1"),
			want: map[string]string{"X-Request-ID": "req-1", "X-Correlation-ID": "corr-1"},
		},
		{name: "empty values skipped", ctx: requestid.WithCorrelation(requestid.With(bg, ""), ""), want: map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, requestid.Headers(tt.ctx)); diff != "" {
				t.Errorf("Headers() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromContext_Bare(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := requestid.FromContext(ctx); got != "" {
		t.Errorf("FromContext() = %q, want empty", got)
	}
	if got := requestid.CorrelationFromContext(ctx); got != "" {
		t.Errorf("CorrelationFromContext() = %q, want empty", got)
	}
}
