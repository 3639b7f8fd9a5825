package lrkservice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dekarrin/lrk/internal/lrkservice/dao"
	"github.com/dekarrin/lrk/internal/lrkservice/result"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PathPrefix is the prefix every route in this package is mounted under.
const PathPrefix = "/api/v1"

// authKey is a context key under which the authenticated user is stashed by
// the auth middleware.
type authKey int

const authUserKey authKey = iota

// API holds the service backend and auth parameters needed to build the
// router returned by Routes.
type API struct {
	Backend     *Service
	UnauthDelay time.Duration
}

// Routes builds the top-level router, mounting every endpoint under
// PathPrefix.
func (api API) Routes() chi.Router {
	top := chi.NewRouter()
	top.Mount(PathPrefix, api.routes())
	return top
}

// routes builds the router for the endpoints themselves, unprefixed; Routes
// mounts it under PathPrefix.
func (api API) routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", api.endpoint(api.epLogin))

	r.Group(func(r chi.Router) {
		r.Use(api.requireAuth)
		r.Post("/logout", api.endpoint(api.epLogout))
		r.Post("/builds", api.endpoint(api.epCreateBuild))
		r.Get("/builds", api.endpoint(api.epListBuilds))
		r.Post("/builds/{id}/parse", api.endpoint(api.epParse))
	})

	return r
}

// endpointFunc is the shape of a handler that this package's router wraps:
// it returns a Result instead of writing to the ResponseWriter directly, so
// logging and panic recovery happen in exactly one place (endpoint).
type endpointFunc func(req *http.Request) result.Result

func (api API) endpoint(ep endpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w)

		r := ep(req)

		if r.IsErr {
			log.Printf("ERROR %s %s: HTTP-%d %s", req.Method, req.URL.Path, r.Status, r.InternalMsg)
		} else {
			log.Printf("INFO  %s %s: HTTP-%d %s", req.Method, req.URL.Path, r.Status, r.InternalMsg)
		}

		if r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden || r.Status == http.StatusInternalServerError {
			time.Sleep(api.UnauthDelay)
		}

		r.WriteResponse(w)
	}
}

func panicTo500(w http.ResponseWriter) {
	if panicErr := recover(); panicErr != nil {
		result.InternalServerError(fmt.Sprintf("panic: %v\n%s", panicErr, string(debug.Stack()))).WriteResponse(w)
	}
}

// requireAuth validates the request's bearer token and stashes the
// authenticated user in the request context, or short-circuits with an
// HTTP-401 if the token is missing or invalid.
func (api API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tok, err := bearerToken(req)
		if err != nil {
			time.Sleep(api.UnauthDelay)
			result.Unauthorized(err.Error(), err.Error()).WriteResponse(w)
			return
		}

		user, err := api.Backend.validateJWT(req.Context(), tok)
		if err != nil {
			time.Sleep(api.UnauthDelay)
			result.Unauthorized("token is invalid or expired", err.Error()).WriteResponse(w)
			return
		}

		ctx := context.WithValue(req.Context(), authUserKey, user)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func authedUser(req *http.Request) dao.User {
	return req.Context().Value(authUserKey).(dao.User)
}

func parseJSON(req *http.Request, v interface{}) error {
	if !strings.EqualFold(req.Header.Get("Content-Type"), "application/json") {
		return fmt.Errorf("request content-type is not application/json")
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("malformed JSON in request: %w", err)
	}
	return nil
}

// LoginRequest is the JSON body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the JSON body returned by a successful POST /login.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

func (api API) epLogin(req *http.Request) result.Result {
	var body LoginRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if body.Username == "" || body.Password == "" {
		return result.BadRequest("username and password are required", "missing credentials")
	}

	user, err := api.Backend.login(req.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			return result.Unauthorized(ErrBadCredentials.Error(), "user %q: %s", body.Username, err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	tok, err := api.Backend.generateJWT(user)
	if err != nil {
		return result.InternalServerError("generate JWT: %s", err.Error())
	}

	return result.Created(LoginResponse{Token: tok, UserID: user.ID.String()}, "user %q logged in", user.Username)
}

func (api API) epLogout(req *http.Request) result.Result {
	user := authedUser(req)
	if err := api.Backend.Logout(req.Context(), user); err != nil {
		return result.InternalServerError("logout: %s", err.Error())
	}
	return result.OK(struct{}{}, "user %q logged out, prior tokens invalidated", user.Username)
}

// BuildRequest is the JSON body of POST /builds.
type BuildRequest struct {
	Grammar string `json:"grammar"`
	K       *int   `json:"k"`
}

// BuildResponse is the JSON body returned by a successful POST /builds.
type BuildResponse struct {
	ID         string `json:"id"`
	Success    bool   `json:"success"`
	StateCount int    `json:"state_count,omitempty"`
	Table      string `json:"table,omitempty"` // base64, only when Success
	Error      string `json:"error,omitempty"` // only when !Success
}

func (api API) epCreateBuild(req *http.Request) result.Result {
	var body BuildRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if strings.TrimSpace(body.Grammar) == "" {
		return result.BadRequest("grammar: property is empty or missing from request", "empty grammar")
	}

	k := api.Backend.DefaultK()
	if body.K != nil {
		k = *body.K
	}
	if k < 0 {
		return result.BadRequest("k: must be non-negative", "negative k")
	}

	user := authedUser(req)
	rec, err := api.Backend.Build(req.Context(), user.ID, body.Grammar, k)
	if err != nil {
		return result.InternalServerError("build: %s", err.Error())
	}

	resp := BuildResponse{ID: rec.ID.String(), Success: rec.Success, StateCount: rec.StateCount}
	if rec.Success {
		resp.Table = base64.StdEncoding.EncodeToString(rec.TableData)
		return result.Created(resp, "build %s succeeded with %d states", rec.ID, rec.StateCount)
	}
	resp.Error = rec.ConflictMsg
	return result.Created(resp, "build %s failed: %s", rec.ID, rec.ConflictMsg)
}

func (api API) epListBuilds(req *http.Request) result.Result {
	user := authedUser(req)
	recs, err := api.Backend.Builds(req.Context(), user.ID)
	if err != nil {
		return result.InternalServerError("list builds: %s", err.Error())
	}

	resp := make([]BuildResponse, len(recs))
	for i, rec := range recs {
		resp[i] = BuildResponse{ID: rec.ID.String(), Success: rec.Success, StateCount: rec.StateCount, Error: rec.ConflictMsg}
	}
	return result.OK(resp, "listed %d builds for user %q", len(resp), user.Username)
}

// ParseRequest is the JSON body of POST /builds/{id}/parse.
type ParseRequest struct {
	Text string `json:"text"`
}

// ParseResponse is the JSON body returned by a successful parse request.
type ParseResponse struct {
	Derivation []int  `json:"derivation,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (api API) epParse(req *http.Request) result.Result {
	idStr := chi.URLParam(req, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		return result.BadRequest("id: not a valid build id", "bad build id %q", idStr)
	}

	var body ParseRequest
	if err := parseJSON(req, &body); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	derivation, err := api.Backend.Parse(req.Context(), id, body.Text)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return result.NotFound("build %s not found", id)
		}
		return result.OK(ParseResponse{Error: err.Error()}, "parse error for build %s: %s", id, err.Error())
	}

	return result.OK(ParseResponse{Derivation: derivation}, "parsed into %d reductions against build %s", len(derivation), id)
}
