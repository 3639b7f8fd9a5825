// Package lrkservice exposes the grammar loader, FIRST_k analyzer, state
// builder, table codec, and runtime parser as an authenticated HTTP service,
// adapting the teacher's server package (chi routing, JWT auth, bcrypt
// credentials, a SQLite-backed store) to this module's domain.
package lrkservice

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"
	"time"

	"github.com/dekarrin/lrk/internal/automaton"
	"github.com/dekarrin/lrk/internal/firstk"
	"github.com/dekarrin/lrk/internal/grammar"
	"github.com/dekarrin/lrk/internal/kstring"
	"github.com/dekarrin/lrk/internal/lrkerrors"
	"github.com/dekarrin/lrk/internal/lrkservice/dao"
	"github.com/dekarrin/lrk/internal/lrkservice/dao/sqlite"
	"github.com/dekarrin/lrk/internal/runtime"
	"github.com/dekarrin/lrk/internal/table"
	"github.com/google/uuid"
)

// Service wires the core LR(k) pipeline to a persistence layer and a JWT
// secret, and is the backend every API handler calls into.
type Service struct {
	store  dao.Store
	secret []byte

	// defaultK is used when a build request omits k.
	defaultK int

	// pipelineMu serializes every call into the core pipeline. The core
	// (spec §5) is single-threaded by design: kstring.Configure sets a
	// package-level lookahead bound that every downstream package (grammar,
	// firstk, automaton, table, runtime) reads for the duration of one
	// build or parse. chi dispatches requests concurrently, so two builds
	// (or a build and a parse) at different k would otherwise race on that
	// global. Holding pipelineMu across configure-and-run makes each
	// request's use of the core atomic with respect to the others.
	pipelineMu sync.Mutex
}

// NewService opens a SQLite-backed store under cfg.DataDir and returns a
// Service ready to be used as an API's Backend.
func NewService(cfg Config) (*Service, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o770); err != nil {
		return nil, err
	}
	store, err := sqlite.NewDatastore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return &Service{store: store, secret: []byte(cfg.Secret), defaultK: cfg.DefaultK}, nil
}

// Close releases the underlying store.
func (svc *Service) Close() error {
	return svc.store.Close()
}

// DefaultK returns the lookahead bound to use for a build request that
// omits k.
func (svc *Service) DefaultK() int {
	return svc.defaultK
}

// Register creates a new user account with a bcrypt-hashed password.
func (svc *Service) Register(ctx context.Context, username, password string) (dao.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return dao.User{}, err
	}
	return svc.store.Users().Create(ctx, dao.User{Username: username, PasswordHash: hash})
}

// buildOutcome is the in-process result of running the grammar → FIRST_k →
// builder → codec pipeline once, before it is recorded as a BuildRecord.
type buildOutcome struct {
	success     bool
	stateCount  int
	conflictMsg string
	tableData   []byte
	prodCount   int
}

// runBuild parses grammarText, builds the LR(k) tables for the given k, and
// serializes the result. It never returns an error for a grammar-level or
// build-level failure — those are reported in the returned buildOutcome so
// the caller can persist a failed build the same way it persists a
// successful one. A failure to serialize the table into its in-memory
// buffer is reported in the outcome the same way.
func runBuild(k int, grammarText string) buildOutcome {
	kstring.Configure(k)

	g, err := grammar.Load(bytes.NewBufferString(grammarText))
	if err != nil {
		return buildOutcome{conflictMsg: err.Error()}
	}

	first := firstk.Build(g)
	built, err := automaton.NewBuilder(g, first).Build()
	if err != nil {
		return buildOutcome{conflictMsg: err.Error()}
	}

	var buf bytes.Buffer
	if err := table.Write(&buf, k, g, built); err != nil {
		return buildOutcome{conflictMsg: err.Error()}
	}

	return buildOutcome{
		success:    true,
		stateCount: built.NumStates(),
		prodCount:  len(g.Productions()),
		tableData:  buf.Bytes(),
	}
}

// Build runs the pipeline for the given user and grammar text at lookahead
// k, persists a build-history row regardless of outcome, and returns it.
func (svc *Service) Build(ctx context.Context, userID uuid.UUID, grammarText string, k int) (dao.BuildRecord, error) {
	sum := sha256.Sum256([]byte(grammarText))

	svc.pipelineMu.Lock()
	outcome := runBuild(k, grammarText)
	svc.pipelineMu.Unlock()

	rec := dao.BuildRecord{
		UserID:      userID,
		GrammarHash: hex.EncodeToString(sum[:]),
		K:           k,
		Success:     outcome.success,
		StateCount:  outcome.stateCount,
		ConflictMsg: outcome.conflictMsg,
		TableData:   outcome.tableData,
		CreatedAt:   time.Now(),
	}

	return svc.store.Builds().Create(ctx, rec)
}

// Parse loads a previously built table by id and runs the runtime parser
// against text.
func (svc *Service) Parse(ctx context.Context, buildID uuid.UUID, text string) ([]int, error) {
	rec, err := svc.store.Builds().GetByID(ctx, buildID)
	if err != nil {
		return nil, err
	}
	if !rec.Success {
		return nil, lrkerrors.New(lrkerrors.CorruptTable, "build %s did not succeed", buildID)
	}

	svc.pipelineMu.Lock()
	defer svc.pipelineMu.Unlock()

	kstring.Configure(rec.K)
	rt, err := table.Read(bytes.NewReader(rec.TableData), rec.K)
	if err != nil {
		return nil, err
	}

	return runtime.New(rt).ParseText(text)
}

// Builds lists the build history for a user.
func (svc *Service) Builds(ctx context.Context, userID uuid.UUID) ([]dao.BuildRecord, error) {
	return svc.store.Builds().GetAllForUser(ctx, userID)
}
