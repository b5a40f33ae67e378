package complaint

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ComplaintStatus follows the one-way path Pending -> Ticket Created -> Closed.
type ComplaintStatus string

const (
	StatusPending       ComplaintStatus = "Pending"
	StatusTicketCreated ComplaintStatus = "Ticket Created"
	StatusClosed        ComplaintStatus = "Closed"
)

// Complaint is a customer-submitted product issue report, the precursor to
// a support ticket.
type Complaint struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	Phone        string             `json:"phone" bson:"phone"`
	ProductName  string             `json:"product_name" bson:"product_name"`
	SerialNumber string             `json:"serial_number" bson:"serial_number"`
	PurchaseDate *time.Time         `json:"purchase_date,omitempty" bson:"purchase_date,omitempty"`
	Issue        string             `json:"issue" bson:"issue"`
	Status       ComplaintStatus    `json:"status" bson:"status"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}
