package batch

import (
	"time"

	"agrimarket-be/internal/user"

	"github.com/google/uuid"
)

// Batch is a quantity of produce held by one party. Transfers split a
// child batch off the source, so ParentID chains every batch back to the
// farmer's original lot.
type Batch struct {
	ID          uuid.UUID  `json:"id"`
	ProduceType string     `json:"produce_type"`
	Quantity    int        `json:"quantity"`
	HolderID    uint       `json:"holder_id"`
	HolderRole  user.Role  `json:"holder_role"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Event is one step in a batch's history.
type Event struct {
	ID        uuid.UUID `json:"id"`
	BatchID   uuid.UUID `json:"batch_id"`
	Action    Action    `json:"action"`
	ActorID   uint      `json:"actor_id"`
	ActorRole user.Role `json:"actor_role"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

type Action string

const (
	ActionCreated   Action = "CREATED"
	ActionBought    Action = "BOUGHT"
	ActionSold      Action = "SOLD"
	ActionPurchased Action = "PURCHASED"
)

// Trace is a batch's full lineage: the chain of batches from the consumer's
// purchase back to the farmer's original lot, with every event along it.
type Trace struct {
	Batches []*Batch `json:"batches"`
	Events  []*Event `json:"events"`
}

type CreateParams struct {
	ProduceType string `json:"produce_type"`
	Quantity    int    `json:"quantity"`
}

type TransferParams struct {
	BatchID  uuid.UUID `json:"batch_id"`
	Quantity int       `json:"quantity"`
}

type ListFilter struct {
	HolderID    *uint
	HolderRole  *user.Role
	ProduceType *string
	Limit       int32
	Page        int32
}
