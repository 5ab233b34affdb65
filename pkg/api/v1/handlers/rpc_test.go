package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/effectiveacceleration/marketplace/internal/db/dbtest"
	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/db/repos"
	"github.com/effectiveacceleration/marketplace/internal/escrow"
	"github.com/effectiveacceleration/marketplace/internal/services"
	"github.com/effectiveacceleration/marketplace/pkg/contentref"
	"github.com/effectiveacceleration/marketplace/pkg/signing"
)

const testToken = "0x00000000000000000000000000000000000000ee"

type RPCTestSuite struct {
	suite.Suite
	clock  *clock.Mock
	ledger *escrow.Ledger
	app    *fiber.App
	key    *secp256k1.PrivateKey
	caller string
}

func TestRPCTestSuite(t *testing.T) {
	suite.Run(t, new(RPCTestSuite))
}

func (s *RPCTestSuite) SetupTest() {
	s.setupApp(true)
}

func (s *RPCTestSuite) setupApp(faucet bool) {
	gdb := dbtest.New(s.T())
	s.clock = clock.NewMock()
	s.clock.Set(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s.ledger = escrow.NewLedger(gdb)

	treasury, err := signing.GenerateKey()
	s.Require().NoError(err)
	registry := services.NewJobRegistry(gdb, s.ledger, services.Config{
		FeeBps:   services.DefaultFeeBps,
		Treasury: signing.AddressFromPubKey(treasury.PubKey()),
	})

	api := NewAPIHandler(registry, s.ledger, faucet)
	read := NewReadHandler(api)
	rpc := NewRPCHandler(api, NewAuthenticator(s.clock, time.Minute, repos.NewSignatureRepository(gdb)))

	s.app = fiber.New()
	s.app.Get("/jobs/:id/events", read.GetJobEvents)
	s.app.Get("/jobs/:id", read.GetJob)
	s.app.Get("/users/:address", read.GetUser)
	s.app.Post("/", rpc.HandleRPC)

	s.key, err = signing.GenerateKey()
	s.Require().NoError(err)
	s.caller = signing.AddressFromPubKey(s.key.PubKey())
}

// body encodes an RPC request signed at ts
func (s *RPCTestSuite) body(method string, params interface{}, ts int64) []byte {
	raw, err := json.Marshal(map[string]interface{}{
		"method":    method,
		"params":    params,
		"timestamp": ts,
		"nonce":     uuid.NewString(),
	})
	s.Require().NoError(err)
	return raw
}

// post sends body with an optional signature header
func (s *RPCTestSuite) post(body []byte, signature string) (int, RPCResponse) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	return s.do(req)
}

func (s *RPCTestSuite) do(req *http.Request) (int, RPCResponse) {
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	var out RPCResponse
	s.Require().NoError(json.Unmarshal(raw, &out), "invalid response: %s", raw)
	return resp.StatusCode, out
}

// signed sends method as the suite caller, signed now
func (s *RPCTestSuite) signed(method string, params interface{}) (int, RPCResponse) {
	body := s.body(method, params, s.clock.Now().Unix())
	sig := signing.EncodeHex(signing.Sign(s.key, signing.RequestDigest(body)))
	return s.post(body, sig)
}

func (s *RPCTestSuite) postJobParams(amount uint64) JobPostParams {
	return JobPostParams{
		Title:      "label images",
		ContentRef: contentref.MustParse("0x01"),
		Token:      testToken,
		Amount:     amount,
		MaxTime:    3600,
	}
}

func (s *RPCTestSuite) TestInvalidRequests() {
	status, resp := s.post([]byte("{not json"), "")
	s.Equal(fiber.StatusBadRequest, status)
	s.Equal(ErrMsgInvalidReqFormat, resp.Error.Message)

	status, resp = s.post(s.body("", nil, 0), "")
	s.Equal(fiber.StatusBadRequest, status)
	s.Equal(ErrMsgMethodRequired, resp.Error.Message)

	status, resp = s.signed("job.unknown", nil)
	s.Equal(fiber.StatusBadRequest, status)
	s.Equal(ErrMsgUnknownMethod, resp.Error.Message)

	status, resp = s.signed(JobPost, nil)
	s.Equal(fiber.StatusBadRequest, status)
	s.Equal(ErrMsgInvalidParams, resp.Error.Message)
}

func (s *RPCTestSuite) TestSignatureRequired() {
	status, resp := s.post(s.body(JobPost, s.postJobParams(10), s.clock.Now().Unix()), "")
	s.Equal(fiber.StatusUnauthorized, status)
	s.False(resp.Success)
	s.Equal(ErrMsgSignatureRequired, resp.Error.Message)

	status, resp = s.post(s.body(JobPost, s.postJobParams(10), s.clock.Now().Unix()), "0xzz")
	s.Equal(fiber.StatusUnauthorized, status)
	s.Equal(ErrMsgInvalidSignature, resp.Error.Message)
}

func (s *RPCTestSuite) TestExpiredSignature() {
	body := s.body(BalanceWithdraw, BalanceTransferParams{Token: testToken, Amount: 1}, s.clock.Now().Add(-2*time.Minute).Unix())
	sig := signing.EncodeHex(signing.Sign(s.key, signing.RequestDigest(body)))
	status, resp := s.post(body, sig)
	s.Equal(fiber.StatusUnauthorized, status)
	s.Equal(ErrMsgRequestExpired, resp.Error.Message)

	// The same body is accepted once the clock is back inside the window
	s.clock.Add(-90 * time.Second)
	status, resp = s.post(body, sig)
	s.Equal(fiber.StatusBadRequest, status, "insufficient funds, not an auth failure")
	s.Nil(resp.Error.Data)
}

func (s *RPCTestSuite) TestReplayedRequestRejected() {
	s.Require().NoError(s.ledger.Deposit(context.Background(), s.caller, testToken, 100))

	body := s.body(JobPost, s.postJobParams(10), s.clock.Now().Unix())
	sig := signing.EncodeHex(signing.Sign(s.key, signing.RequestDigest(body)))
	status, resp := s.post(body, sig)
	s.Require().Equal(fiber.StatusOK, status, "%+v", resp.Error)

	status, resp = s.post(body, sig)
	s.Equal(fiber.StatusUnauthorized, status)
	s.Equal(ErrMsgRequestReplayed, resp.Error.Message)

	// Still rejected after the record would have expired, the timestamp is stale by then
	s.clock.Add(2 * time.Minute)
	status, resp = s.post(body, sig)
	s.Equal(fiber.StatusUnauthorized, status)
	s.Equal(ErrMsgRequestExpired, resp.Error.Message)

	bal, err := s.ledger.Balance(context.Background(), s.caller, testToken)
	s.Require().NoError(err)
	s.Equal(uint64(90), bal)

	// A fresh nonce makes the same call a new request
	status, resp = s.signed(JobPost, s.postJobParams(10))
	s.Equal(fiber.StatusOK, status, "%+v", resp.Error)
}

func (s *RPCTestSuite) TestDepositOverflow() {
	status, resp := s.signed(BalanceDeposit, BalanceTransferParams{Token: testToken, Amount: models.MaxAmount})
	s.Require().Equal(fiber.StatusOK, status, "%+v", resp.Error)

	status, resp = s.signed(BalanceDeposit, BalanceTransferParams{Token: testToken, Amount: 1})
	s.Equal(fiber.StatusBadRequest, status)
	s.False(resp.Success)

	bal, err := s.ledger.Balance(context.Background(), s.caller, testToken)
	s.Require().NoError(err)
	s.Equal(models.MaxAmount, bal)
}

func (s *RPCTestSuite) TestReadMethodsAreUnsigned() {
	status, resp := s.post(s.body(JobRevision, JobIDParams{JobID: 7}, 0), "")
	s.Equal(fiber.StatusNotFound, status)
	s.Equal(string(services.KindNotFound), resp.Error.Kind)
}

func (s *RPCTestSuite) TestPostJobAndRead() {
	s.Require().NoError(s.ledger.Deposit(context.Background(), s.caller, testToken, 10))

	status, resp := s.signed(JobPost, s.postJobParams(10))
	s.Require().Equal(fiber.StatusOK, status, "%+v", resp.Error)
	s.True(resp.Success)

	req := httptest.NewRequest(http.MethodGet, "/jobs/1", nil)
	httpResp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	defer httpResp.Body.Close()
	s.Equal(fiber.StatusOK, httpResp.StatusCode)

	var job models.Job
	s.Require().NoError(json.NewDecoder(httpResp.Body).Decode(&job))
	s.Equal(s.caller, job.Creator)
	s.Equal(uint64(0), job.Revision)

	status, resp = s.signed(JobPost, s.postJobParams(10))
	s.Equal(fiber.StatusBadRequest, status)
	s.Equal(string(services.KindInvalidArgument), resp.Error.Kind)

	// The creator cannot take its own job
	sig := signing.Sign(s.key, signing.TakeDigest(0, 1))
	status, resp = s.signed(JobTake, JobTakeParams{JobID: 1, Revision: 0, Signature: sig})
	s.Equal(fiber.StatusForbidden, status)
	s.Equal(string(services.KindUnauthorized), resp.Error.Kind)
}

func (s *RPCTestSuite) TestRESTErrors() {
	for _, path := range []string{"/jobs/abc", "/jobs/0", "/jobs/1/events?start=x", "/users/nope"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := s.app.Test(req, -1)
		s.Require().NoError(err)
		s.Equal(fiber.StatusBadRequest, resp.StatusCode, path)
		_ = resp.Body.Close()
	}

	status, resp := s.do(httptest.NewRequest(http.MethodGet, "/jobs/9", nil))
	s.Equal(fiber.StatusNotFound, status)
	s.Equal(string(services.KindNotFound), resp.Error.Kind)
}

func (s *RPCTestSuite) TestFaucetDisabled() {
	s.setupApp(false)

	status, resp := s.signed(BalanceDeposit, BalanceTransferParams{Token: testToken, Amount: 5})
	s.Equal(fiber.StatusForbidden, status)
	s.Equal(ErrMsgFaucetDisabled, resp.Error.Message)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   services.ErrorKind
	}{
		{services.ErrInvalidArgument, fiber.StatusBadRequest, services.KindInvalidArgument},
		{services.ErrUnauthorized, fiber.StatusForbidden, services.KindUnauthorized},
		{services.ErrInvalidState, fiber.StatusConflict, services.KindInvalidState},
		{services.ErrAlreadyTaken, fiber.StatusConflict, services.KindAlreadyTaken},
		{services.ErrAlreadyRegistered, fiber.StatusConflict, services.KindAlreadyRegistered},
		{services.ErrStaleSignature, fiber.StatusPreconditionFailed, services.KindStaleSignature},
		{services.ErrEscrowFailure, fiber.StatusBadGateway, services.KindEscrowFailure},
		{services.ErrNotFound, fiber.StatusNotFound, services.KindNotFound},
		{fmt.Errorf("wrapped: %w", services.ErrNotFound), fiber.StatusNotFound, services.KindNotFound},
		{errors.New("disk on fire"), fiber.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, kind := StatusForError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, kind)
		})
	}
}
