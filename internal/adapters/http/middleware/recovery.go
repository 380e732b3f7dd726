package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/dto"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/logging"
)

// errPanic is what the client sees; the panic value stays in the logs.
var errPanic = errors.New("internal server error")

// Recovery turns a handler panic into a 500 problem response and an ERROR
// log entry with the stack. http.ErrAbortHandler is re-raised so net/http
// can abort the connection as the handler intended.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sr := record(w)
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}
				logPanic(logging.FromContextOr(r.Context(), logger), r, v)
				if !sr.Committed() {
					dto.WriteErrorResponse(sr, r, errPanic)
				}
			}()
			next.ServeHTTP(sr, r)
		})
	}
}

func logPanic(logger *slog.Logger, r *http.Request, v any) {
	logger.ErrorContext(r.Context(), "panic recovered",
		slog.String("panic", fmt.Sprint(v)),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)
}
