// Package client provides the API client for interacting with the marketplace API
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	fiber "github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/services"
	"github.com/effectiveacceleration/marketplace/pkg/api/v1/handlers"
	"github.com/effectiveacceleration/marketplace/pkg/api/v1/routes"
	"github.com/effectiveacceleration/marketplace/pkg/signing"
	"github.com/effectiveacceleration/marketplace/pkg/types"
)

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// ErrNoPrivateKey is returned by signed calls on a client without a private key
var ErrNoPrivateKey = errors.New("client has no private key, signed calls are unavailable")

// Client is the interface for API client
type Client interface {
	// Address returns the address requests are signed as, or "" without a key
	Address() string

	// Health Check
	HealthCheck(ctx context.Context) (types.HealthResponse, error)

	// Job reads
	GetJob(ctx context.Context, id uint) (models.Job, error)
	ListJobs(ctx context.Context, params handlers.JobListParams) (types.ListResponse[models.Job], error)
	GetJobEvents(ctx context.Context, id uint, start, end uint64) (types.EventsResponse, error)
	GetRevision(ctx context.Context, id uint) (uint64, error)
	GetWhitelist(ctx context.Context, id uint) (types.WhitelistResponse, error)

	// Job lifecycle
	PostJob(ctx context.Context, params handlers.JobPostParams) (models.Job, error)
	UpdateJob(ctx context.Context, params handlers.JobUpdateParams) (models.Job, error)
	TakeJob(ctx context.Context, id uint) (models.Job, error)
	ApplyForJob(ctx context.Context, id uint) error
	PayStartJob(ctx context.Context, params handlers.JobWorkerParams) (models.Job, error)
	DeliverResult(ctx context.Context, params handlers.JobRefParams) (models.Job, error)
	CloseJob(ctx context.Context, params handlers.JobCloseParams) (models.Job, error)
	Refund(ctx context.Context, id uint) (models.Job, error)
	ReopenJob(ctx context.Context, id uint) (models.Job, error)
	WithdrawCollateral(ctx context.Context, id uint) (models.Job, error)
	AddWhitelistedWorker(ctx context.Context, params handlers.JobWorkerParams) (types.WhitelistResponse, error)
	RemoveWhitelistedWorker(ctx context.Context, params handlers.JobWorkerParams) (types.WhitelistResponse, error)
	PostMessage(ctx context.Context, params handlers.JobMessageParams) error
	RateJob(ctx context.Context, params handlers.JobRateParams) (models.Review, error)

	// Arbitration
	DisputeJob(ctx context.Context, params handlers.JobRefParams) (models.Job, error)
	ArbitrateJob(ctx context.Context, params handlers.JobArbitrateParams) (models.Job, error)
	RefuseArbitration(ctx context.Context, id uint) (models.Job, error)

	// User Endpoints
	GetUser(ctx context.Context, address string) (models.User, error)
	RegisterUser(ctx context.Context, params handlers.UserRegisterParams) (models.User, error)
	UpdateUser(ctx context.Context, params handlers.UserUpdateParams) (models.User, error)
	ListUsers(ctx context.Context, params handlers.ListParams) (types.ListResponse[models.User], error)
	ListReviews(ctx context.Context, params handlers.UserReviewsParams) (types.ListResponse[models.Review], error)

	// Arbitrator Endpoints
	RegisterArbitrator(ctx context.Context, params handlers.ArbitratorRegisterParams) (models.Arbitrator, error)
	GetArbitrator(ctx context.Context, address string) (models.Arbitrator, error)
	ListArbitrators(ctx context.Context, params handlers.ListParams) (types.ListResponse[models.Arbitrator], error)

	// Balance Endpoints
	GetBalance(ctx context.Context, params handlers.BalanceParams) (types.BalanceResponse, error)
	Deposit(ctx context.Context, params handlers.BalanceTransferParams) (types.BalanceResponse, error)
	Withdraw(ctx context.Context, params handlers.BalanceTransferParams) (types.BalanceResponse, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration

	// PrivateKey signs mutating requests. Read-only clients may leave it nil.
	PrivateKey *secp256k1.PrivateKey

	// Clock stamps signed requests, defaults to the wall clock
	Clock clock.Clock
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	timeout time.Duration
	key     *secp256k1.PrivateKey
	address string
	clock   clock.Clock
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate the base URL
	_, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	c := &APIClient{
		baseURL: opts.BaseURL,
		timeout: opts.Timeout,
		key:     opts.PrivateKey,
		clock:   opts.Clock,
	}
	if c.timeout == 0 {
		c.timeout = DefaultTimeout
	}
	if c.clock == nil {
		c.clock = clock.New()
	}
	if c.key != nil {
		c.address = signing.AddressFromPubKey(c.key.PubKey())
	}
	return c, nil
}

// APIError is a failed API call. It matches the registry error of the same kind with errors.Is.
type APIError struct {
	Status  int
	Kind    services.ErrorKind
	Message string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s (code: %d, kind: %s)", e.Message, e.Status, e.Kind)
	}
	return fmt.Sprintf("%s (code: %d)", e.Message, e.Status)
}

// Is matches *services.Error sentinels by kind
func (e *APIError) Is(target error) bool {
	t, ok := target.(*services.Error)
	return ok && e.Kind != "" && t.Kind == e.Kind
}

// Address returns the address requests are signed as
func (c *APIClient) Address() string {
	return c.address
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string) (*fiber.Agent, error) {
	// Resolve the endpoint URL
	fullURL := c.baseURL + endpoint

	// Create a new agent based on the HTTP method
	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	agent.Set("Accept", "application/json")
	return agent, nil
}

// decodeError turns a non-success response into an *APIError
func decodeError(statusCode int, body []byte) error {
	var rpcResp handlers.RPCResponse
	if err := json.Unmarshal(body, &rpcResp); err == nil && rpcResp.Error != nil {
		return &APIError{
			Status:  statusCode,
			Kind:    services.ErrorKind(rpcResp.Error.Kind),
			Message: rpcResp.Error.Message,
		}
	}
	// If we can't decode the error response, return an error with the raw body as the message
	return &APIError{Status: statusCode, Message: string(body)}
}

// executeRequest sends a REST request and decodes the response into v
func (c *APIClient) executeRequest(ctx context.Context, endpoint string, v interface{}) error {
	agent, err := c.createAgent(ctx, http.MethodGet, endpoint)
	if err != nil {
		return err
	}

	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}
	if statusCode < 200 || statusCode >= 300 {
		return decodeError(statusCode, body)
	}

	if v != nil && len(body) > 0 {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}
	return nil
}

// executeRPC performs the actual RPC call. Methods other than reads are signed.
func (c *APIClient) executeRPC(ctx context.Context, method string, params interface{}, result interface{}) error {
	req := struct {
		Method    string      `json:"method"`
		Params    interface{} `json:"params,omitempty"`
		Timestamp int64       `json:"timestamp,omitempty"`
		Nonce     string      `json:"nonce,omitempty"`
	}{Method: method, Params: params}

	signed := !handlers.IsReadMethod(method)
	if signed {
		if c.key == nil {
			return ErrNoPrivateKey
		}
		req.Timestamp = c.clock.Now().Unix()
		req.Nonce = uuid.NewString()
	}

	// The signature covers these exact bytes, so the body is sent raw
	requestBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode RPC request: %w", err)
	}

	agent, err := c.createAgent(ctx, http.MethodPost, routes.RPCURL())
	if err != nil {
		return err
	}
	agent.ContentType(fiber.MIMEApplicationJSON)
	agent.Body(requestBody)
	if signed {
		sig := signing.Sign(c.key, signing.RequestDigest(requestBody))
		agent.Set(handlers.SignatureHeader, signing.EncodeHex(sig))
	}

	// Execute the request and get the response body
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending RPC request: %w", errs[0])
	}
	if statusCode < 200 || statusCode >= 300 {
		return decodeError(statusCode, body)
	}

	// Unmarshal the response into the handlers.RPCResponse struct
	var rpcResp handlers.RPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("failed to unmarshal RPC response body: %w", err)
	}

	// Check for application-level errors
	if rpcResp.Error != nil {
		return &APIError{
			Status:  rpcResp.Error.Code,
			Kind:    services.ErrorKind(rpcResp.Error.Kind),
			Message: rpcResp.Error.Message,
		}
	}
	if !rpcResp.Success {
		return fmt.Errorf("RPC call failed without specific error details")
	}

	// If result is nil, we don't need to unmarshal data
	if result == nil || rpcResp.Data == nil {
		return nil
	}

	// Since rpcResp.Data is interface{}, we need to marshal it back to JSON
	// and then unmarshal it into the target result struct.
	dataBytes, err := json.Marshal(rpcResp.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal RPC data field: %w", err)
	}
	if err := json.Unmarshal(dataBytes, result); err != nil {
		return fmt.Errorf("failed to unmarshal RPC data into result: %w", err)
	}
	return nil
}

// Health check implementation

// HealthCheck checks the health of the API
func (c *APIClient) HealthCheck(ctx context.Context) (types.HealthResponse, error) {
	var response types.HealthResponse
	if err := c.executeRequest(ctx, routes.HealthCheckURL(), &response); err != nil {
		return types.HealthResponse{}, err
	}
	return response, nil
}

// Job read methods implementation

// GetJob retrieves a job by id
func (c *APIClient) GetJob(ctx context.Context, id uint) (models.Job, error) {
	var job models.Job
	if err := c.executeRequest(ctx, routes.GetJobURL(id), &job); err != nil {
		return models.Job{}, err
	}
	return job, nil
}

// ListJobs lists jobs matching the filters of params
func (c *APIClient) ListJobs(ctx context.Context, params handlers.JobListParams) (types.ListResponse[models.Job], error) {
	var response types.ListResponse[models.Job]
	if err := c.executeRPC(ctx, handlers.JobList, params, &response); err != nil {
		return types.ListResponse[models.Job]{}, err
	}
	return response, nil
}

// GetJobEvents reads the events of a job with start <= index < end. end 0 reads to the last event.
func (c *APIClient) GetJobEvents(ctx context.Context, id uint, start, end uint64) (types.EventsResponse, error) {
	q := url.Values{}
	if start > 0 {
		q.Set("start", strconv.FormatUint(start, 10))
	}
	if end > 0 {
		q.Set("end", strconv.FormatUint(end, 10))
	}
	var response types.EventsResponse
	if err := c.executeRequest(ctx, routes.GetJobEventsURL(id, q), &response); err != nil {
		return types.EventsResponse{}, err
	}
	return response, nil
}

// GetRevision returns the revision a worker signs to take or apply for a job
func (c *APIClient) GetRevision(ctx context.Context, id uint) (uint64, error) {
	var response types.RevisionResponse
	if err := c.executeRPC(ctx, handlers.JobRevision, handlers.JobIDParams{JobID: id}, &response); err != nil {
		return 0, err
	}
	return response.Revision, nil
}

// GetWhitelist lists the whitelisted workers of a job
func (c *APIClient) GetWhitelist(ctx context.Context, id uint) (types.WhitelistResponse, error) {
	var response types.WhitelistResponse
	if err := c.executeRPC(ctx, handlers.JobWhitelist, handlers.JobIDParams{JobID: id}, &response); err != nil {
		return types.WhitelistResponse{}, err
	}
	return response, nil
}

// Job lifecycle methods implementation

func (c *APIClient) jobCall(ctx context.Context, method string, params interface{}) (models.Job, error) {
	var job models.Job
	if err := c.executeRPC(ctx, method, params, &job); err != nil {
		return models.Job{}, err
	}
	return job, nil
}

// PostJob posts a new job from the client's address
func (c *APIClient) PostJob(ctx context.Context, params handlers.JobPostParams) (models.Job, error) {
	return c.jobCall(ctx, handlers.JobPost, params)
}

// UpdateJob changes the title and tags of an open job
func (c *APIClient) UpdateJob(ctx context.Context, params handlers.JobUpdateParams) (models.Job, error) {
	return c.jobCall(ctx, handlers.JobUpdate, params)
}

// takeParams reads the job revision and signs it for a take or apply
func (c *APIClient) takeParams(ctx context.Context, id uint) (handlers.JobTakeParams, error) {
	if c.key == nil {
		return handlers.JobTakeParams{}, ErrNoPrivateKey
	}
	revision, err := c.GetRevision(ctx, id)
	if err != nil {
		return handlers.JobTakeParams{}, err
	}
	return handlers.JobTakeParams{
		JobID:     id,
		Revision:  revision,
		Signature: signing.Sign(c.key, signing.TakeDigest(revision, uint64(id))),
	}, nil
}

// TakeJob signs the current revision of a job and takes it
func (c *APIClient) TakeJob(ctx context.Context, id uint) (models.Job, error) {
	params, err := c.takeParams(ctx, id)
	if err != nil {
		return models.Job{}, err
	}
	return c.jobCall(ctx, handlers.JobTake, params)
}

// ApplyForJob signs the current revision of a job and applies for it
func (c *APIClient) ApplyForJob(ctx context.Context, id uint) error {
	params, err := c.takeParams(ctx, id)
	if err != nil {
		return err
	}
	return c.executeRPC(ctx, handlers.JobApply, params, nil)
}

// PayStartJob starts a multiple-applicant job with one of its applicants
func (c *APIClient) PayStartJob(ctx context.Context, params handlers.JobWorkerParams) (models.Job, error) {
	return c.jobCall(ctx, handlers.JobPayStart, params)
}

// DeliverResult delivers the result of a taken job
func (c *APIClient) DeliverResult(ctx context.Context, params handlers.JobRefParams) (models.Job, error) {
	return c.jobCall(ctx, handlers.JobDeliver, params)
}

// CloseJob accepts the work of a job
func (c *APIClient) CloseJob(ctx context.Context, params handlers.JobCloseParams) (models.Job, error) {
	return c.jobCall(ctx, handlers.JobClose, params)
}

// Refund refunds a job to its creator
func (c *APIClient) Refund(ctx context.Context, id uint) (models.Job, error) {
	return c.jobCall(ctx, handlers.JobRefund, handlers.JobIDParams{JobID: id})
}

// ReopenJob reopens a refunded job
func (c *APIClient) ReopenJob(ctx context.Context, id uint) (models.Job, error) {
	return c.jobCall(ctx, handlers.JobReopen, handlers.JobIDParams{JobID: id})
}

// WithdrawCollateral withdraws collateral held after an early refund
func (c *APIClient) WithdrawCollateral(ctx context.Context, id uint) (models.Job, error) {
	return c.jobCall(ctx, handlers.JobWithdrawCollateral, handlers.JobIDParams{JobID: id})
}

// AddWhitelistedWorker whitelists a worker on an open job
func (c *APIClient) AddWhitelistedWorker(ctx context.Context, params handlers.JobWorkerParams) (types.WhitelistResponse, error) {
	var response types.WhitelistResponse
	if err := c.executeRPC(ctx, handlers.JobWhitelistAdd, params, &response); err != nil {
		return types.WhitelistResponse{}, err
	}
	return response, nil
}

// RemoveWhitelistedWorker removes a worker from the whitelist of an open job
func (c *APIClient) RemoveWhitelistedWorker(ctx context.Context, params handlers.JobWorkerParams) (types.WhitelistResponse, error) {
	var response types.WhitelistResponse
	if err := c.executeRPC(ctx, handlers.JobWhitelistRemove, params, &response); err != nil {
		return types.WhitelistResponse{}, err
	}
	return response, nil
}

// PostMessage posts a message on a job
func (c *APIClient) PostMessage(ctx context.Context, params handlers.JobMessageParams) error {
	return c.executeRPC(ctx, handlers.JobMessage, params, nil)
}

// RateJob reviews the other party of a finished job
func (c *APIClient) RateJob(ctx context.Context, params handlers.JobRateParams) (models.Review, error) {
	var review models.Review
	if err := c.executeRPC(ctx, handlers.JobRate, params, &review); err != nil {
		return models.Review{}, err
	}
	return review, nil
}

// Arbitration methods implementation

// DisputeJob raises a dispute on a taken job
func (c *APIClient) DisputeJob(ctx context.Context, params handlers.JobRefParams) (models.Job, error) {
	return c.jobCall(ctx, handlers.JobDispute, params)
}

// ArbitrateJob settles a disputed job
func (c *APIClient) ArbitrateJob(ctx context.Context, params handlers.JobArbitrateParams) (models.Job, error) {
	return c.jobCall(ctx, handlers.JobArbitrate, params)
}

// RefuseArbitration steps down as the arbitrator of a job
func (c *APIClient) RefuseArbitration(ctx context.Context, id uint) (models.Job, error) {
	return c.jobCall(ctx, handlers.JobRefuseArbitration, handlers.JobIDParams{JobID: id})
}

// User methods implementation

// GetUser retrieves a user by address
func (c *APIClient) GetUser(ctx context.Context, address string) (models.User, error) {
	var user models.User
	if err := c.executeRequest(ctx, routes.GetUserURL(address), &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// RegisterUser registers the client's public key and profile
func (c *APIClient) RegisterUser(ctx context.Context, params handlers.UserRegisterParams) (models.User, error) {
	if len(params.PublicKey) == 0 && c.key != nil {
		params.PublicKey = signing.CompressedPubKey(c.key)
	}
	var user models.User
	if err := c.executeRPC(ctx, handlers.UserRegister, params, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// UpdateUser edits the client's profile
func (c *APIClient) UpdateUser(ctx context.Context, params handlers.UserUpdateParams) (models.User, error) {
	var user models.User
	if err := c.executeRPC(ctx, handlers.UserUpdate, params, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ListUsers lists users
func (c *APIClient) ListUsers(ctx context.Context, params handlers.ListParams) (types.ListResponse[models.User], error) {
	var response types.ListResponse[models.User]
	if err := c.executeRPC(ctx, handlers.UserList, params, &response); err != nil {
		return types.ListResponse[models.User]{}, err
	}
	return response, nil
}

// ListReviews lists the reviews a user received
func (c *APIClient) ListReviews(ctx context.Context, params handlers.UserReviewsParams) (types.ListResponse[models.Review], error) {
	var response types.ListResponse[models.Review]
	if err := c.executeRPC(ctx, handlers.UserReviews, params, &response); err != nil {
		return types.ListResponse[models.Review]{}, err
	}
	return response, nil
}

// Arbitrator methods implementation

// RegisterArbitrator registers the client as an arbitrator
func (c *APIClient) RegisterArbitrator(ctx context.Context, params handlers.ArbitratorRegisterParams) (models.Arbitrator, error) {
	if len(params.PublicKey) == 0 && c.key != nil {
		params.PublicKey = signing.CompressedPubKey(c.key)
	}
	var arb models.Arbitrator
	if err := c.executeRPC(ctx, handlers.ArbitratorRegister, params, &arb); err != nil {
		return models.Arbitrator{}, err
	}
	return arb, nil
}

// GetArbitrator retrieves an arbitrator by address
func (c *APIClient) GetArbitrator(ctx context.Context, address string) (models.Arbitrator, error) {
	var arb models.Arbitrator
	if err := c.executeRPC(ctx, handlers.ArbitratorGet, handlers.AddressParams{Address: address}, &arb); err != nil {
		return models.Arbitrator{}, err
	}
	return arb, nil
}

// ListArbitrators lists arbitrators
func (c *APIClient) ListArbitrators(ctx context.Context, params handlers.ListParams) (types.ListResponse[models.Arbitrator], error) {
	var response types.ListResponse[models.Arbitrator]
	if err := c.executeRPC(ctx, handlers.ArbitratorList, params, &response); err != nil {
		return types.ListResponse[models.Arbitrator]{}, err
	}
	return response, nil
}

// Balance methods implementation

// GetBalance reads a balance. An empty owner reads the client's own balance.
func (c *APIClient) GetBalance(ctx context.Context, params handlers.BalanceParams) (types.BalanceResponse, error) {
	if params.Owner == "" {
		params.Owner = c.address
	}
	return c.balanceCall(ctx, handlers.BalanceGet, params)
}

// Deposit credits the client's balance on servers with the faucet enabled
func (c *APIClient) Deposit(ctx context.Context, params handlers.BalanceTransferParams) (types.BalanceResponse, error) {
	return c.balanceCall(ctx, handlers.BalanceDeposit, params)
}

// Withdraw debits the client's free balance
func (c *APIClient) Withdraw(ctx context.Context, params handlers.BalanceTransferParams) (types.BalanceResponse, error) {
	return c.balanceCall(ctx, handlers.BalanceWithdraw, params)
}

func (c *APIClient) balanceCall(ctx context.Context, method string, params interface{}) (types.BalanceResponse, error) {
	var response types.BalanceResponse
	if err := c.executeRPC(ctx, method, params, &response); err != nil {
		return types.BalanceResponse{}, err
	}
	return response, nil
}
