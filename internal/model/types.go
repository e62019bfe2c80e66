package model

import "time"

// Match statuses reported to clients. SUCCESS and NO_FEASIBLE_MATCH come from
// the engine; the rest describe request failures.
const (
	StatusSuccess         = "SUCCESS"
	StatusNoFeasibleMatch = "NO_FEASIBLE_MATCH"
	StatusInvalidInput    = "INVALID_INPUT"
	StatusValidationError = "VALIDATION_ERROR"
	StatusInternalError   = "INTERNAL_ERROR"
)

// Event types published to streams and webhooks.
const (
	EventMatchCompleted = "match.completed"
	EventMatchFailed    = "match.failed"
)

type DriverIn struct {
	ID         int64 `json:"id" validate:"gt=0"`
	LocationID int64 `json:"locationId" validate:"gte=0"`
	Available  *bool `json:"available,omitempty"`
}

type Driver struct {
	ID         int64     `json:"id"`
	LocationID int64     `json:"locationId"`
	Available  bool      `json:"available"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type RiderIn struct {
	ID               int64 `json:"id" validate:"gt=0"`
	PickupLocationID int64 `json:"pickupLocationId" validate:"gte=0"`
	DropLocationID   int64 `json:"dropLocationId" validate:"gte=0"`
	Requested        *bool `json:"requested,omitempty"`
}

type Rider struct {
	ID               int64     `json:"id"`
	PickupLocationID int64     `json:"pickupLocationId"`
	DropLocationID   int64     `json:"dropLocationId"`
	Requested        bool      `json:"requested"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type Location struct {
	ID   int64  `json:"id" validate:"gte=0"`
	Name string `json:"name" validate:"max=200"`
}

// Cost is a directed travel cost between two locations. Negative costs are
// accepted on the wire; the engine ignores them.
type Cost struct {
	FromLocation int64 `json:"fromLocation" validate:"gte=0"`
	ToLocation   int64 `json:"toLocation" validate:"gte=0"`
	Cost         int64 `json:"cost"`
}

type CostsRequest struct {
	Costs []Cost `json:"costs" validate:"required,min=1,dive"`
}

// MatchRequest carries a self-contained matching problem. Empty collections
// pass shape validation and are rejected by the engine.
type MatchRequest struct {
	Drivers []DriverIn `json:"drivers" validate:"dive"`
	Riders  []RiderIn  `json:"riders" validate:"dive"`
	Costs   []Cost     `json:"costs" validate:"dive"`
}

type MatchOut struct {
	DriverID       int64  `json:"driverId"`
	DriverLocation int64  `json:"driverLocation"`
	RiderID        int64  `json:"riderId"`
	PickupLocation int64  `json:"pickupLocation"`
	DropLocation   int64  `json:"dropLocation"`
	PickupCost     int64  `json:"pickupCost"`
	TripCost       int64  `json:"tripCost"`
	Cost           int64  `json:"cost"`
	Description    string `json:"description"`
}

type MatchResponse struct {
	RunID              string     `json:"runId,omitempty"`
	Matches            []MatchOut `json:"matches"`
	TotalCost          int64      `json:"totalCost"`
	Status             string     `json:"status"`
	Message            string     `json:"message"`
	DriversConsidered  int        `json:"driversConsidered"`
	RidersConsidered   int        `json:"ridersConsidered"`
	UnmatchedDriverIDs []int64    `json:"unmatchedDriverIds,omitempty"`
	UnmatchedRiderIDs  []int64    `json:"unmatchedRiderIds,omitempty"`
}

// MatchRun is the recorded outcome of one solve.
type MatchRun struct {
	ID         string        `json:"id"`
	Source     string        `json:"source"` // "store", "inline" or "schedule"
	Status     string        `json:"status"`
	TotalCost  int64         `json:"totalCost"`
	Matched    int           `json:"matched"`
	Drivers    int           `json:"drivers"`
	Riders     int           `json:"riders"`
	DurationMs int64         `json:"durationMs"`
	CreatedAt  time.Time     `json:"createdAt"`
	Result     MatchResponse `json:"result"`
}

type ServiceInfo struct {
	APIName     string   `json:"apiName"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Endpoints   []string `json:"endpoints"`
}

type SubscriptionRequest struct {
	URL    string   `json:"url" validate:"required,url"`
	Events []string `json:"events" validate:"required,min=1,dive,oneof=match.completed match.failed"`
	Secret string   `json:"secret" validate:"max=256"`
}

type Subscription struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret,omitempty"`
}

type WebhookDeliveryOut struct {
	ID            string     `json:"id"`
	EventType     string     `json:"eventType"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	URL           string     `json:"url"`
	NextAttemptAt *time.Time `json:"nextAttemptAt,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
	ResponseCode  int        `json:"responseCode,omitempty"`
}
