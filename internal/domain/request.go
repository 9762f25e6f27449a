package domain

import "time"

type Category string

const (
	CategoryFood           Category = "food"
	CategoryClothing       Category = "clothing"
	CategoryShelter        Category = "shelter"
	CategoryMedical        Category = "medical"
	CategoryTransportation Category = "transportation"
	CategoryEducation      Category = "education"
	CategoryOther          Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryClothing, CategoryShelter, CategoryMedical,
		CategoryTransportation, CategoryEducation, CategoryOther:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

type RequestStatus string

const (
	StatusOpen       RequestStatus = "open"
	StatusClaimed    RequestStatus = "claimed"
	StatusInProgress RequestStatus = "in_progress"
	StatusFulfilled  RequestStatus = "fulfilled"
	StatusCancelled  RequestStatus = "cancelled"
)

// transitions lists the declared edges of the request status machine.
// Only open -> claimed is driven by an operation; the rest are store-level.
var transitions = map[RequestStatus][]RequestStatus{
	StatusOpen:       {StatusClaimed, StatusCancelled},
	StatusClaimed:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusFulfilled, StatusCancelled},
}

// CanTransitionTo reports whether next is a declared successor of s.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, n := range transitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusClaimed, StatusInProgress, StatusFulfilled, StatusCancelled:
		return true
	}
	return false
}

// RequestKind is the constant partition value of the all-requests index.
const RequestKind = "aid_request"

// AidRequest is the persisted shape of a request for assistance.
// Claimant and ClaimedAt are omitted from the item while open so the
// claimed_by index stays sparse.
type AidRequest struct {
	RequestID   string        `json:"id" dynamodbav:"request_id"`
	Requester   string        `json:"requester" dynamodbav:"user_id"`
	Title       string        `json:"title" dynamodbav:"title"`
	Description string        `json:"description" dynamodbav:"description"`
	Category    Category      `json:"category" dynamodbav:"category"`
	Urgency     Urgency       `json:"urgency" dynamodbav:"urgency"`
	Status      RequestStatus `json:"status" dynamodbav:"status"`
	Location    Location      `json:"location" dynamodbav:"location"`
	ImageURL    *string       `json:"image_url" dynamodbav:"image_url,omitempty"`
	Claimant    *string       `json:"claimant" dynamodbav:"claimed_by,omitempty"`
	ClaimSeq    string        `json:"-" dynamodbav:"claim_seq,omitempty"`
	Kind        string        `json:"-" dynamodbav:"kind"`
	CreatedAt   time.Time     `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at" dynamodbav:"updated_at,omitempty"`
	ClaimedAt   *time.Time    `json:"claimed_at" dynamodbav:"claimed_at,omitempty"`
	FulfilledAt *time.Time    `json:"fulfilled_at" dynamodbav:"fulfilled_at,omitempty"`
}

// CreateRequestInput is the user-submitted form for a new request.
type CreateRequestInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Urgency     string  `json:"urgency"`
	Address     string  `json:"location_address"`
	Lat         float64 `json:"location_lat"`
	Lng         float64 `json:"location_lng"`
}

// RequestFilter narrows a listing. Zero values mean "any".
type RequestFilter struct {
	Category Category
	Urgency  Urgency
	Status   RequestStatus
	Owner    string
	Claimant string
	Limit    int
	Cursor   string
}

// RequestPage is one bounded slice of a listing.
type RequestPage struct {
	Items      []AidRequest `json:"data"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// NearbyRequest pairs a request with its distance from the helper.
type NearbyRequest struct {
	AidRequest
	DistanceKm float64 `json:"distance_km"`
}

// Dashboard frames listings by role: recipients see their own requests,
// helpers see what is available and what they have claimed.
type Dashboard struct {
	Role       Role         `json:"role"`
	MyRequests []AidRequest `json:"my_requests,omitempty"`
	Available  []AidRequest `json:"available,omitempty"`
	Claimed    []AidRequest `json:"claimed,omitempty"`
}

// MapView is the set of open requests that can be pinned on a map.
type MapView struct {
	Center Coordinates  `json:"center"`
	Pins   []AidRequest `json:"pins"`
}
