package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/services"
	"github.com/effectiveacceleration/marketplace/pkg/types"
)

// UserHandlers contains all user related RPC handlers
type UserHandlers struct {
	*APIHandler
}

func (h *UserHandlers) handle(c *fiber.Ctx, caller string, req RPCRequest) error {
	switch req.Method {
	case UserRegister:
		return h.Register(c, caller, req)
	case UserUpdate:
		return h.Update(c, caller, req)
	case UserGet:
		return h.Get(c, req)
	case UserList:
		return h.List(c, req)
	case UserReviews:
		return h.Reviews(c, req)
	default:
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgUnknownMethod, nil, req.ID)
	}
}

func (p ProfileParams) profile() services.Profile {
	return services.Profile{Name: p.Name, Bio: p.Bio, Avatar: p.Avatar}
}

// Register godoc
// @Summary Register the caller
// @Description Registers the caller's compressed public key and profile
// @Tags users,rpc
// @Accept json
// @Produce json
// @Param request body RPCRequest true "RPC request with UserRegisterParams"
// @Success 200 {object} RPCResponse{data=models.User} "Registered user"
// @Failure 400 {object} RPCResponse "Invalid public key"
// @Failure 409 {object} RPCResponse "Already registered"
// @OperationId registerUser
func (h *UserHandlers) Register(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[UserRegisterParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	user, err := h.registry.RegisterUser(c.Context(), caller, params.PublicKey, params.profile())
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, user, req.ID)
}

// Update handles editing the caller's profile
func (h *UserHandlers) Update(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[UserUpdateParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	user, err := h.registry.UpdateUser(c.Context(), caller, params.profile())
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, user, req.ID)
}

// Get handles retrieving a user by address
func (h *UserHandlers) Get(c *fiber.Ctx, req RPCRequest) error {
	params, err := parseParams[AddressParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	user, err := h.registry.GetUser(c.Context(), params.Address)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, user, req.ID)
}

// List handles listing users
func (h *UserHandlers) List(c *fiber.Ctx, req RPCRequest) error {
	params, err := optionalListParams(req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	opts := getPaginationOptions(params.Page, params.Limit)
	users, err := h.registry.ListUsers(c.Context(), opts)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, listResponse(users, params.Page, opts), req.ID)
}

// Reviews handles listing the reviews a user received
func (h *UserHandlers) Reviews(c *fiber.Ctx, req RPCRequest) error {
	params, err := parseParams[UserReviewsParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	opts := getPaginationOptions(params.Page, params.Limit)
	reviews, err := h.registry.ListReviews(c.Context(), params.Address, opts)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, listResponse(reviews, params.Page, opts), req.ID)
}

// ArbitratorHandlers contains all arbitrator related RPC handlers
type ArbitratorHandlers struct {
	*APIHandler
}

func (h *ArbitratorHandlers) handle(c *fiber.Ctx, caller string, req RPCRequest) error {
	switch req.Method {
	case ArbitratorRegister:
		return h.Register(c, caller, req)
	case ArbitratorGet:
		return h.Get(c, req)
	case ArbitratorList:
		return h.List(c, req)
	default:
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgUnknownMethod, nil, req.ID)
	}
}

// Register handles registering the caller as an arbitrator
func (h *ArbitratorHandlers) Register(c *fiber.Ctx, caller string, req RPCRequest) error {
	params, err := parseParams[ArbitratorRegisterParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	arb, err := h.registry.RegisterArbitrator(c.Context(), caller, params.PublicKey, params.profile(), params.FeeBps)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, arb, req.ID)
}

// Get handles retrieving an arbitrator by address
func (h *ArbitratorHandlers) Get(c *fiber.Ctx, req RPCRequest) error {
	params, err := parseParams[AddressParams](req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	arb, err := h.registry.GetArbitrator(c.Context(), params.Address)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, arb, req.ID)
}

// List handles listing arbitrators
func (h *ArbitratorHandlers) List(c *fiber.Ctx, req RPCRequest) error {
	params, err := optionalListParams(req)
	if err != nil {
		return respondWithRPCError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), req.ID)
	}
	opts := getPaginationOptions(params.Page, params.Limit)
	arbs, err := h.registry.ListArbitrators(c.Context(), opts)
	if err != nil {
		return respondWithError(c, err, req.ID)
	}
	return respond(c, listResponse(arbs, params.Page, opts), req.ID)
}

func optionalListParams(req RPCRequest) (ListParams, error) {
	if len(req.Params) == 0 {
		return ListParams{}, nil
	}
	return parseParams[ListParams](req)
}

// listResponse wraps a page of rows. Total is the length of the page for unfiltered listings.
func listResponse[T any](rows []T, page int, opts *models.ListOptions) types.ListResponse[T] {
	if page < 1 {
		page = 1
	}
	return types.ListResponse[T]{
		Rows: rows,
		Pagination: types.PaginationResponse{
			Total:  int64(len(rows)),
			Page:   page,
			Limit:  opts.Limit,
			Offset: opts.Offset,
		},
	}
}
