package models

import "github.com/effectiveacceleration/marketplace/pkg/contentref"

// Event payloads. Each JobEvent type stores one of these as its JSON payload.

// CreatedPayload is stored with JobEventCreated
type CreatedPayload struct {
	Title              string         `json:"title"`
	Tags               []string       `json:"tags"`
	ContentRef         contentref.Ref `json:"content_ref"`
	Token              string         `json:"token"`
	Amount             uint64         `json:"amount"`
	MaxTime            uint32         `json:"max_time"`
	DeliveryMethod     string         `json:"delivery_method"`
	MultipleApplicants bool           `json:"multiple_applicants"`
	Arbitrator         string         `json:"arbitrator,omitempty"`
}

// UpdatedPayload is stored with JobEventUpdated
type UpdatedPayload struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// SignaturePayload is stored with JobEventTaken and JobEventSigned
type SignaturePayload struct {
	Revision  uint64   `json:"revision"`
	Signature HexBytes `json:"signature"`
}

// WorkerPayload is stored with JobEventPaid
type WorkerPayload struct {
	Worker string `json:"worker"`
}

// DeliveredPayload is stored with JobEventDelivered
type DeliveredPayload struct {
	ResultRef contentref.Ref `json:"result_ref"`
}

// CompletedPayload is stored with JobEventCompleted
type CompletedPayload struct {
	WorkerPayout uint64 `json:"worker_payout"`
	Fee          uint64 `json:"fee"`
}

// RefundedPayload is stored with JobEventRefunded
type RefundedPayload struct {
	By             string `json:"by"`
	Amount         uint64 `json:"amount"`
	CollateralOwed uint64 `json:"collateral_owed"`
}

// DisputedPayload is stored with JobEventDisputed
type DisputedPayload struct {
	ReasonRef contentref.Ref `json:"reason_ref,omitempty"`
}

// ArbitratedPayload is stored with JobEventArbitrated
type ArbitratedPayload struct {
	CreatorShareBps uint32         `json:"creator_share_bps"`
	WorkerShareBps  uint32         `json:"worker_share_bps"`
	CreatorAmount   uint64         `json:"creator_amount"`
	WorkerAmount    uint64         `json:"worker_amount"`
	ArbitratorFee   uint64         `json:"arbitrator_fee"`
	ReasonRef       contentref.Ref `json:"reason_ref,omitempty"`
}

// ArbitrationRefusedPayload is stored with JobEventArbitrationRefused
type ArbitrationRefusedPayload struct {
	Arbitrator string `json:"arbitrator"`
}

// WhitelistPayload is stored with the whitelist events
type WhitelistPayload struct {
	Address string `json:"address"`
}

// CollateralPayload is stored with JobEventCollateralWithdrawn
type CollateralPayload struct {
	Amount uint64 `json:"amount"`
}

// MessagePayload is stored with JobEventOwnerMessage and JobEventWorkerMessage
type MessagePayload struct {
	ContentRef contentref.Ref `json:"content_ref"`
	Recipient  string         `json:"recipient,omitempty"`
}

// RatedPayload is stored with JobEventRated
type RatedPayload struct {
	Target string `json:"target"`
	Rating uint8  `json:"rating"`
	Text   string `json:"text,omitempty"`
}
