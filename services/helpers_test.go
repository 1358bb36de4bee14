package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"relief-claims-api/models"
	"relief-claims-api/repository"
	"relief-claims-api/storage"
)

var (
	tehsildar = models.Identity{ID: "off-tehsildar", Role: models.RoleTehsildar}
	sdm       = models.Identity{ID: "off-sdm", Role: models.RoleSDM}
	rahat     = models.Identity{ID: "off-rahat", Role: models.RoleRahatOperator}
	oic       = models.Identity{ID: "off-oic", Role: models.RoleOIC}
	adg       = models.Identity{ID: "off-adg", Role: models.RoleADG}
	collector = models.Identity{ID: "off-collector", Role: models.RoleCollector}
)

func validInput() ClaimInput {
	return ClaimInput{
		ApplicantName:        "Ramesh Kumar",
		Age:                  42,
		Sex:                  "male",
		DateOfBirth:          time.Date(1982, 3, 14, 0, 0, 0, 0, time.UTC),
		DateOfDeath:          time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC),
		Location:             "Village Khairpur, Tehsil Abhanpur",
		ResidentialAddress:   "House 12, Ward 4, Khairpur",
		FamilyDetails:        "Wife Sunita (38), son Amit (16)",
		PatwariChecked:       true,
		ThanaInchargeChecked: true,
	}
}

type engineFixture struct {
	store  repository.Store
	engine *WorkflowEngine
	docs   *DocumentStore
}

func newFixture(t *testing.T, store repository.Store, opts EngineOptions) *engineFixture {
	t.Helper()
	if store == nil {
		store = repository.NewMemoryStore()
	}
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	if opts.Retry.MaxRetries == 0 && opts.Retry.InitialInterval == 0 {
		opts.Retry = RetryPolicy{MaxRetries: 3, InitialInterval: time.Millisecond}
	}
	opts.Logger = logger

	docs := NewDocumentStore(store, blobs, 1024, opts.Retry, logger)
	return &engineFixture{
		store:  store,
		engine: NewWorkflowEngine(store, docs, opts),
		docs:   docs,
	}
}

// submitted returns a claim waiting for the first reviewer.
func (f *engineFixture) submitted(t *testing.T) *ClaimView {
	t.Helper()
	ctx := context.Background()
	view, err := f.engine.CreateClaim(ctx, validInput(), tehsildar)
	require.NoError(t, err)
	view, err = f.engine.SubmitClaim(ctx, view.ClaimID, tehsildar)
	require.NoError(t, err)
	return view
}

func (f *engineFixture) act(t *testing.T, claimID string, actor models.Identity, action models.Action, notes string) *ClaimView {
	t.Helper()
	view, err := f.engine.SubmitAction(context.Background(), ActionRequest{
		ClaimID: claimID, Actor: actor, Action: action, Notes: notes,
	})
	require.NoError(t, err)
	return view
}

// faultyStore injects failures into a wrapped store, including inside
// transactions.
type faultyStore struct {
	repository.Store
	f *faults
}

type faults struct {
	casConflict bool
	appendErr   error
	casCalls    atomic.Int32

	mu       sync.Mutex
	afterGet func()
}

// runAfterNextGet makes the next claim load call fn before returning, as if
// another officer committed right after the read.
func (f *faults) runAfterNextGet(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.afterGet = fn
}

func (f *faults) takeAfterGet() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn := f.afterGet
	f.afterGet = nil
	return fn
}

func (s faultyStore) Claims() repository.ClaimRepository {
	return faultyClaims{s.Store.Claims(), s.f}
}

func (s faultyStore) Approvals() repository.ApprovalRepository {
	return faultyApprovals{s.Store.Approvals(), s.f}
}

func (s faultyStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(faultyStore{tx, s.f})
	})
}

type faultyClaims struct {
	repository.ClaimRepository
	f *faults
}

func (c faultyClaims) Get(ctx context.Context, id string) (*models.Claim, error) {
	claim, err := c.ClaimRepository.Get(ctx, id)
	if fn := c.f.takeAfterGet(); fn != nil {
		fn()
	}
	return claim, err
}

func (c faultyClaims) CompareAndSet(ctx context.Context, id string, expect repository.ClaimState, update repository.ClaimUpdate) error {
	c.f.casCalls.Add(1)
	if c.f.casConflict {
		return repository.ErrConflict
	}
	return c.ClaimRepository.CompareAndSet(ctx, id, expect, update)
}

type faultyApprovals struct {
	repository.ApprovalRepository
	f *faults
}

func (a faultyApprovals) Append(ctx context.Context, record *models.Approval) error {
	if a.f.appendErr != nil {
		return a.f.appendErr
	}
	return a.ApprovalRepository.Append(ctx, record)
}
