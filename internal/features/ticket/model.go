package ticket

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TicketStatus represents the status of a ticket
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketPriority represents the priority level of a ticket
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// HistoryEntry is an immutable audit record of a status or assignment
// change. Assignment-only changes carry the current, unchanged status so the
// history covers every mutating action.
type HistoryEntry struct {
	Status    TicketStatus       `json:"status" bson:"status"`
	UpdatedBy primitive.ObjectID `json:"updated_by" bson:"updated_by"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
	Note      string             `json:"note,omitempty" bson:"note,omitempty"`
}

// CustomerRef is the customer snapshot embedded at creation time. It is
// copied from the originating complaint and never updated afterwards, so
// later complaint edits cannot rewrite ticket ownership.
type CustomerRef struct {
	ComplaintID primitive.ObjectID `json:"complaint_id" bson:"complaint_id"`
	Name        string             `json:"name" bson:"name"`
	Email       string             `json:"email" bson:"email"`
	Phone       string             `json:"phone" bson:"phone"`
}

// Ticket is a staff-created work item tracking resolution of a qualifying
// customer complaint.
type Ticket struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Priority    TicketPriority     `json:"priority" bson:"priority"`
	Status      TicketStatus       `json:"status" bson:"status"`

	AssignedTo primitive.ObjectID `json:"assigned_to" bson:"assigned_to"`
	CreatedBy  primitive.ObjectID `json:"created_by" bson:"created_by"`

	Customer          CustomerRef        `json:"customer" bson:"customer"`
	CustomerComplaint primitive.ObjectID `json:"customer_complaint" bson:"customer_complaint"`

	History []HistoryEntry `json:"history" bson:"history"`

	// CloseCode is the one-time verification code minted on resolution and
	// cleared on closure. It is relayed to the customer by mail and never
	// included in API responses.
	CloseCode string `json:"-" bson:"close_code,omitempty"`

	ResolvedAt *time.Time `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
	ClosedAt   *time.Time `json:"closed_at,omitempty" bson:"closed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
}
