package implementation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/tliron/glsp"
)

// Serve runs the protocol over stream until the connection closes.
func (s *Server) Serve(ctx context.Context, stream io.ReadWriteCloser, debug bool) {
	<-s.Conn(ctx, stream, debug).DisconnectNotify()
}

// ServeStdio runs the protocol over stdin and stdout.
func (s *Server) ServeStdio(debug bool) error {
	log.Info("reading from stdin, writing to stdout")
	s.Serve(context.Background(), stdio{}, debug)
	log.Info("stdin/stdout connection closed")
	return nil
}

// Conn opens a connection over stream dispatching to the server's handler.
func (s *Server) Conn(ctx context.Context, stream io.ReadWriteCloser, debug bool) *jsonrpc2.Conn {
	var options []jsonrpc2.ConnOpt
	if debug {
		options = append(options, jsonrpc2.LogMessages(rpcLogger{}))
	}
	return jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(stream, jsonrpc2.VSCodeObjectCodec{}), jsonrpc2.HandlerWithError(s.handle), options...)
}

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request) (any, error) {
	glspContext := glsp.Context{
		Method: request.Method,
		Notify: func(method string, params any) {
			if err := conn.Notify(ctx, method, params); err != nil {
				log.Errorf("%s", err.Error())
			}
		},
		Call: func(method string, params any, result any) {
			if err := conn.Call(ctx, method, params, result); err != nil {
				log.Errorf("%s", err.Error())
			}
		},
	}
	if request.Params != nil {
		glspContext.Params = *request.Params
	}

	if request.Method == "exit" {
		s.handler.Handle(&glspContext)
		return nil, conn.Close()
	}

	r, validMethod, validParams, err := s.handler.Handle(&glspContext)
	switch {
	case !validMethod:
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("method not supported: %s", request.Method),
		}
	case !validParams:
		message := ""
		if err != nil {
			message = err.Error()
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: message}
	case err != nil:
		return nil, responseError(err)
	}
	return r, nil
}

// responseError keeps the code of an *Error and reports anything else as an
// invalid request.
func responseError(err error) *jsonrpc2.Error {
	var requestErr *Error
	if errors.As(err, &requestErr) {
		return &jsonrpc2.Error{Code: int64(requestErr.Code), Message: err.Error()}
	}
	return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidRequest, Message: err.Error()}
}

type rpcLogger struct{}

func (rpcLogger) Printf(format string, v ...any) {
	log.Debugf(format, v...)
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdio) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdio) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
