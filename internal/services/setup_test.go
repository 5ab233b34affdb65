package services

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/effectiveacceleration/marketplace/internal/db/dbtest"
	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/escrow"
	"github.com/effectiveacceleration/marketplace/pkg/contentref"
	"github.com/effectiveacceleration/marketplace/pkg/signing"
)

const (
	testToken = "0x00000000000000000000000000000000000000ee"
	testCID   = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
)

// TestSetup wires a registry to an in-memory database and a mock clock
type TestSetup struct {
	DB       *gorm.DB
	Ledger   *escrow.Ledger
	Registry *JobRegistry
	Clock    *clock.Mock
	Treasury string
	ctx      context.Context
	t        *testing.T
}

type account struct {
	key  *secp256k1.PrivateKey
	addr string
}

// NewTestSetup creates a registry with the default fee and lock period
func NewTestSetup(t *testing.T, opts ...Option) *TestSetup {
	gdb := dbtest.New(t)
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	ts := &TestSetup{
		DB:     gdb,
		Ledger: escrow.NewLedger(gdb),
		Clock:  mock,
		ctx:    context.Background(),
		t:      t,
	}
	ts.Treasury = ts.newAccount().addr
	ts.Registry = NewJobRegistry(gdb, ts.Ledger, Config{
		FeeBps:               DefaultFeeBps,
		Treasury:             ts.Treasury,
		CollateralLockPeriod: DefaultCollateralLockPeriod,
	}, append([]Option{WithClock(mock)}, opts...)...)
	return ts
}

func (ts *TestSetup) newAccount() account {
	key, err := signing.GenerateKey()
	require.NoError(ts.t, err)
	return account{key: key, addr: signing.AddressFromPubKey(key.PubKey())}
}

// funded returns a new account holding amount of the test token
func (ts *TestSetup) funded(amount uint64) account {
	acc := ts.newAccount()
	require.NoError(ts.t, ts.Ledger.Deposit(ts.ctx, acc.addr, testToken, amount))
	return acc
}

func (ts *TestSetup) balance(addr string) uint64 {
	bal, err := ts.Ledger.Balance(ts.ctx, addr, testToken)
	require.NoError(ts.t, err)
	return bal
}

func (ts *TestSetup) jobRequest(amount uint64) PostJobRequest {
	return PostJobRequest{
		Title:          "Translate the docs",
		Tags:           []string{"translation", "docs"},
		ContentRef:     contentref.MustParse(testCID),
		Token:          testToken,
		Amount:         amount,
		MaxTime:        3600,
		DeliveryMethod: "ipfs",
	}
}

func (ts *TestSetup) postJob(creator account, req PostJobRequest) *models.Job {
	job, err := ts.Registry.PostJob(ts.ctx, creator.addr, req)
	require.NoError(ts.t, err)
	return job
}

func (ts *TestSetup) revision(jobID uint) uint64 {
	revision, err := ts.Registry.EventLog().Revision(ts.ctx, jobID)
	require.NoError(ts.t, err)
	return revision
}

func (ts *TestSetup) eventCount(jobID uint) uint64 {
	count, err := ts.Registry.EventLog().Count(ts.ctx, jobID)
	require.NoError(ts.t, err)
	return count
}

func takeSignature(acc account, revision uint64, jobID uint) []byte {
	return signing.Sign(acc.key, signing.TakeDigest(revision, uint64(jobID)))
}

// take signs the current revision and takes the job
func (ts *TestSetup) take(worker account, jobID uint) (*models.Job, error) {
	rev := ts.revision(jobID)
	return ts.Registry.TakeJob(ts.ctx, worker.addr, jobID, rev, takeSignature(worker, rev, jobID))
}

// apply signs the current revision and applies for the job
func (ts *TestSetup) apply(worker account, jobID uint) error {
	rev := ts.revision(jobID)
	return ts.Registry.ApplyForJob(ts.ctx, worker.addr, jobID, rev, takeSignature(worker, rev, jobID))
}

func (ts *TestSetup) registerArbitrator(feeBps uint32) account {
	acc := ts.newAccount()
	_, err := ts.Registry.RegisterArbitrator(ts.ctx, acc.addr, signing.CompressedPubKey(acc.key), Profile{Name: "arbiter"}, feeBps)
	require.NoError(ts.t, err)
	return acc
}

func (ts *TestSetup) eventTypes(jobID uint) []models.JobEventType {
	events, err := ts.Registry.EventLog().EventsInRange(ts.ctx, jobID, 0, ts.eventCount(jobID))
	require.NoError(ts.t, err)
	types := make([]models.JobEventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

// takenJob posts a job with amount and has a fresh worker take it
func (ts *TestSetup) takenJob(amount uint64, arbitrator string) (creator, worker account, job *models.Job) {
	creator = ts.funded(amount)
	worker = ts.newAccount()
	req := ts.jobRequest(amount)
	req.Arbitrator = arbitrator
	job = ts.postJob(creator, req)
	job, err := ts.take(worker, job.ID)
	require.NoError(ts.t, err)
	return creator, worker, job
}

func (ts *TestSetup) deliver(worker account, jobID uint) *models.Job {
	job, err := ts.Registry.DeliverResult(ts.ctx, worker.addr, jobID, contentref.MustParse(testCID))
	require.NoError(ts.t, err)
	return job
}
