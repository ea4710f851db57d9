// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package executor

import (
	"io"

	"github.com/gorilla/websocket"
)

// wsPipeReader adapts a WebSocket connection's text-frame stream into an
// io.Reader of newline-delimited JSON, so StreamProcessor.Consume can read
// it exactly like a stdout pipe (§6.2, "alternative transport"). RunAgent
// always reads stdout; nothing in the module selects this transport, and
// the provider catalog has no field for it.
type wsPipeReader struct {
	conn   *websocket.Conn
	buf    []byte
	closed bool
}

// NewWebSocketEventStream dials url and returns an io.Reader yielding the
// same newline-delimited JSON event schema as the stdout transport. The
// caller is responsible for closing the returned closer once done.
func NewWebSocketEventStream(url string) (io.ReadCloser, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return &wsPipeReader{conn: conn}, nil
}

// Read implements io.Reader by pulling one text frame per call into buf,
// appending a trailing newline so bufio.Scanner's line splitting (used by
// StreamProcessor.Consume) sees the same framing as stdout NDJSON.
func (w *wsPipeReader) Read(p []byte) (int, error) {
	if len(w.buf) == 0 {
		if w.closed {
			return 0, io.EOF
		}
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, io.EOF
		}
		w.buf = append(data, '\n')
	}
	n := copy(p, w.buf)
	w.buf = w.buf[n:]
	return n, nil
}

// Close closes the underlying WebSocket connection.
func (w *wsPipeReader) Close() error {
	return w.conn.Close()
}
