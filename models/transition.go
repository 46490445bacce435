package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Decision is the operator action that triggered a transition
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Transition is the audit record of one approve/reject attempt
type Transition struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	TransitionID    string             `json:"transitionId" bson:"transitionId"`
	PartnerID       string             `json:"partnerId" bson:"partnerId"`
	PartnerName     string             `json:"partnerName,omitempty" bson:"partnerName,omitempty"`
	Decision        Decision           `json:"decision" bson:"decision"`
	TargetStatus    PartnerStatus      `json:"targetStatus" bson:"targetStatus"`
	Note            string             `json:"note,omitempty" bson:"note,omitempty"`
	RejectionReason string             `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	OperatorID      string             `json:"operatorId,omitempty" bson:"operatorId,omitempty"`
	OperatorEmail   string             `json:"operatorEmail,omitempty" bson:"operatorEmail,omitempty"`
	Stage           string             `json:"stage" bson:"stage"` // last stage reached
	Succeeded       bool               `json:"succeeded" bson:"succeeded"`
	Error           string             `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt       time.Time          `json:"startedAt" bson:"startedAt"`
	FinishedAt      time.Time          `json:"finishedAt" bson:"finishedAt"`
}

// Operator identifies the admin acting on a partner. Token is forwarded as the
// bearer token to the onboarding service.
type Operator struct {
	ID    string
	Email string
	Token string
}

// ApproveRequest is the body of the approve endpoint
type ApproveRequest struct {
	Note  string `json:"note,omitempty"`
	Page  int    `json:"page,omitempty" validate:"omitempty,min=1"`
	Limit int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

// RejectRequest is the body of the reject endpoint
type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
	Page   int    `json:"page,omitempty" validate:"omitempty,min=1"`
	Limit  int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

// TransitionEvent is published after every transition attempt
type TransitionEvent struct {
	Type         string        `json:"type"`
	TransitionID string        `json:"transitionId"`
	PartnerID    string        `json:"partnerId"`
	PartnerName  string        `json:"partnerName,omitempty"`
	Status       PartnerStatus `json:"status,omitempty"`
	Stage        string        `json:"stage,omitempty"`
	OperatorID   string        `json:"operatorId,omitempty"`
	OccurredAt   time.Time     `json:"occurredAt"`
}
