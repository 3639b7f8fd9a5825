// Package result contains the response type used to write out build-service
// API responses, mirroring the teacher's server/result package: a handler
// returns a Result rather than writing to the http.ResponseWriter directly,
// so logging and JSON marshaling happen in exactly one place.
package result

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorResponse is the JSON body sent for any Result built with Err.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// OK returns a Result containing an HTTP-200 and respObj as the JSON body.
func OK(respObj interface{}, internalMsg ...interface{}) Result {
	return Response(http.StatusOK, respObj, fmtMsg("OK", internalMsg))
}

// Created returns a Result containing an HTTP-201 and respObj as the JSON
// body.
func Created(respObj interface{}, internalMsg ...interface{}) Result {
	return Response(http.StatusCreated, respObj, fmtMsg("created", internalMsg))
}

// BadRequest returns a Result containing an HTTP-400 with userMsg as the
// JSON error body.
func BadRequest(userMsg string, internalMsg ...interface{}) Result {
	return Err(http.StatusBadRequest, userMsg, fmtMsg("bad request", internalMsg))
}

// Unauthorized returns a Result containing an HTTP-401 along with a
// WWW-Authenticate header naming the Bearer-token scheme.
func Unauthorized(userMsg string, internalMsg ...interface{}) Result {
	if userMsg == "" {
		userMsg = "You are not authorized to do that"
	}
	return Err(http.StatusUnauthorized, userMsg, fmtMsg("unauthorized", internalMsg)).
		WithHeader("WWW-Authenticate", `Bearer realm="lrk build service"`)
}

// NotFound returns a Result containing an HTTP-404.
func NotFound(internalMsg ...interface{}) Result {
	return Err(http.StatusNotFound, "The requested resource was not found", fmtMsg("not found", internalMsg))
}

// InternalServerError returns a Result containing an HTTP-500.
func InternalServerError(internalMsg ...interface{}) Result {
	return Err(http.StatusInternalServerError, "An internal server error occurred", fmtMsg("internal server error", internalMsg))
}

func fmtMsg(def string, args []interface{}) string {
	if len(args) == 0 {
		return def
	}
	format, ok := args[0].(string)
	if !ok {
		return def
	}
	return fmt.Sprintf(format, args[1:]...)
}

// Response builds a successful JSON Result.
func Response(status int, respObj interface{}, internalMsg string) Result {
	return Result{IsErr: false, Status: status, InternalMsg: internalMsg, resp: respObj}
}

// Err builds an error JSON Result whose body is an ErrorResponse.
func Err(status int, userMsg, internalMsg string) Result {
	return Result{
		IsErr:       true,
		Status:      status,
		InternalMsg: internalMsg,
		resp:        ErrorResponse{Error: userMsg, Status: status},
	}
}

// Result is the outcome of a build-service API handler, deferred until
// WriteResponse so headers and status can still be adjusted (WithHeader)
// after it is built.
type Result struct {
	Status      int
	IsErr       bool
	InternalMsg string

	resp interface{}
	hdrs [][2]string
}

// WithHeader returns a copy of r with an additional response header set.
func (r Result) WithHeader(name, val string) Result {
	cp := r
	cp.hdrs = append(append([][2]string(nil), r.hdrs...), [2]string{name, val})
	return cp
}

// WriteResponse marshals r's body to JSON and writes it, along with its
// status code and any headers, to w.
func (r Result) WriteResponse(w http.ResponseWriter) {
	if r.Status == 0 {
		panic("result not populated")
	}

	body, err := json.Marshal(r.resp)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "could not marshal response: %s", err.Error())
		return
	}

	for _, h := range r.hdrs {
		w.Header().Set(h[0], h[1])
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(r.Status)
	w.Write(body)
}
