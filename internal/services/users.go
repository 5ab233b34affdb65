package services

import (
	"context"
	"errors"

	"github.com/effectiveacceleration/marketplace/internal/db/models"
	"github.com/effectiveacceleration/marketplace/internal/db/repos"
	"github.com/effectiveacceleration/marketplace/pkg/contentref"
	"github.com/effectiveacceleration/marketplace/pkg/signing"
)

// ErrMsgInvalidPubKeyLength is returned for public keys that are not 33 bytes
const ErrMsgInvalidPubKeyLength = "invalid pubkey length, must be compressed, 33 bytes"

// Profile holds the editable fields of a user or arbitrator
type Profile struct {
	Name   string
	Bio    string
	Avatar contentref.Ref
}

func validatePubKey(pubkey []byte) error {
	if len(pubkey) != signing.CompressedPubKeyLength {
		return invalidArgument(ErrMsgInvalidPubKeyLength)
	}
	return nil
}

// RegisterPublicKey registers the messaging key of caller
func (r *JobRegistry) RegisterPublicKey(ctx context.Context, caller string, pubkey []byte) (*models.User, error) {
	return r.RegisterUser(ctx, caller, pubkey, Profile{})
}

// RegisterUser registers caller with a public key and profile. Registration happens once per address.
func (r *JobRegistry) RegisterUser(ctx context.Context, caller string, pubkey []byte, profile Profile) (*models.User, error) {
	caller, err := normalize("caller", caller)
	if err != nil {
		return nil, err
	}
	if err := validatePubKey(pubkey); err != nil {
		return nil, err
	}
	var user *models.User
	err = r.mutate(ctx, "registerUser", func(o *op) error {
		if err := o.ensureUser(caller); err != nil {
			return err
		}
		if user, err = o.r.users.Get(o.ctx, caller); err != nil {
			return err
		}
		if user.Registered() {
			return &Error{Kind: KindAlreadyRegistered, Msg: "already registered"}
		}
		user.PublicKey = models.HexBytes(pubkey)
		user.Name = profile.Name
		user.Bio = profile.Bio
		user.Avatar = profile.Avatar
		return o.r.users.Save(o.ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser edits the profile of a registered user
func (r *JobRegistry) UpdateUser(ctx context.Context, caller string, profile Profile) (*models.User, error) {
	caller, err := normalize("caller", caller)
	if err != nil {
		return nil, err
	}
	var user *models.User
	err = r.mutate(ctx, "updateUser", func(o *op) error {
		user, err = o.r.users.Get(o.ctx, caller)
		if err != nil {
			return wrapNotFound(err, "user %s not found", caller)
		}
		if !user.Registered() {
			return invalidState("user %s is not registered", caller)
		}
		user.Name = profile.Name
		user.Bio = profile.Bio
		user.Avatar = profile.Avatar
		return o.r.users.Save(o.ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser returns the user stored under addr
func (r *JobRegistry) GetUser(ctx context.Context, addr string) (*models.User, error) {
	addr, err := normalize("user", addr)
	if err != nil {
		return nil, err
	}
	user, err := r.users.Get(ctx, addr)
	if err != nil {
		return nil, wrapNotFound(err, "user %s not found", addr)
	}
	return user, nil
}

// ListUsers returns a page of users
func (r *JobRegistry) ListUsers(ctx context.Context, opts *models.ListOptions) ([]models.User, error) {
	opts.Normalize()
	return r.users.List(ctx, opts)
}

// ListReviews returns the reviews received by target
func (r *JobRegistry) ListReviews(ctx context.Context, target string, opts *models.ListOptions) ([]models.Review, error) {
	target, err := normalize("target", target)
	if err != nil {
		return nil, err
	}
	opts.Normalize()
	return r.reviews.ListByTarget(ctx, target, opts)
}

// JobReviews returns the reviews left on a job
func (r *JobRegistry) JobReviews(ctx context.Context, jobID uint) ([]models.Review, error) {
	return r.reviews.ListByJob(ctx, jobID)
}

// RegisterArbitrator registers caller as an arbitrator charging feeBps per settled dispute
func (r *JobRegistry) RegisterArbitrator(ctx context.Context, caller string, pubkey []byte, profile Profile, feeBps uint32) (*models.Arbitrator, error) {
	caller, err := normalize("caller", caller)
	if err != nil {
		return nil, err
	}
	if err := validatePubKey(pubkey); err != nil {
		return nil, err
	}
	if feeBps > models.MaxBps {
		return nil, invalidArgument("fee must be at most %d bps", models.MaxBps)
	}
	arb := &models.Arbitrator{
		Address:   caller,
		PublicKey: models.HexBytes(pubkey),
		Name:      profile.Name,
		Bio:       profile.Bio,
		Avatar:    profile.Avatar,
		FeeBps:    feeBps,
	}
	err = r.mutate(ctx, "registerArbitrator", func(o *op) error {
		if err := o.ensureUser(caller); err != nil {
			return err
		}
		if err := o.r.arbitrators.Create(o.ctx, arb); err != nil {
			if errors.Is(err, repos.ErrAlreadyExists) {
				return &Error{Kind: KindAlreadyRegistered, Msg: "arbitrator already registered"}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return arb, nil
}

// GetArbitrator returns the arbitrator stored under addr
func (r *JobRegistry) GetArbitrator(ctx context.Context, addr string) (*models.Arbitrator, error) {
	addr, err := normalize("arbitrator", addr)
	if err != nil {
		return nil, err
	}
	arb, err := r.arbitrators.Get(ctx, addr)
	if err != nil {
		return nil, wrapNotFound(err, "arbitrator %s not found", addr)
	}
	return arb, nil
}

// ListArbitrators returns a page of arbitrators
func (r *JobRegistry) ListArbitrators(ctx context.Context, opts *models.ListOptions) ([]models.Arbitrator, error) {
	opts.Normalize()
	return r.arbitrators.List(ctx, opts)
}
