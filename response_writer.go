package slimrouter

import (
	"bufio"
	"net"
	"net/http"
)

// responseWriter tracks whether a response was started so that failures can
// still be answered with a 500 when nothing reached the client. It supports
// hijacking, which the WebSocket handshake requires.
type responseWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

var (
	_ http.ResponseWriter = (*responseWriter)(nil)
	_ http.Flusher        = (*responseWriter)(nil)
	_ http.Hijacker       = (*responseWriter)(nil)
)

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (rw *responseWriter) WriteHeader(status int) {
	if rw.written {
		return
	}
	rw.status = status
	rw.written = true
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.written = true
		rw.status = http.StatusOK
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap returns the underlying http.ResponseWriter so that
// http.ResponseController can reach it.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (rw *responseWriter) Flush() {
	_ = http.NewResponseController(rw.ResponseWriter).Flush()
}

// Hijack marks the response as written; after a hijack the connection belongs
// to the caller.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, buf, err := http.NewResponseController(rw.ResponseWriter).Hijack()
	if err == nil {
		rw.written = true
		rw.status = http.StatusSwitchingProtocols
	}
	return conn, buf, err
}

func (rw *responseWriter) failIfUnwritten() {
	if rw.written {
		return
	}
	rw.WriteHeader(StatusInternalServerError)
}
