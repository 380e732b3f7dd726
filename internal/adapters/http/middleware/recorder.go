package middleware

import "net/http"

// statusRecorder remembers the status and body size a handler produced so
// the outer middleware can log and measure it.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func record(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w}
}

// Status is the response code sent, 200 when the handler wrote a body
// without an explicit header, or 0 when nothing was sent yet.
func (sr *statusRecorder) Status() int {
	return sr.status
}

// Committed reports whether headers have gone out.
func (sr *statusRecorder) Committed() bool {
	return sr.status != 0
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.Committed() {
		return
	}
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.Committed() {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the wrapped writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}
