package types

// ServiceMode selects which microservice this process runs.
//
// Session Service  - identity: sign-up, sign-in, profiles
// Ride Service     - ride booking and lifecycle for riders
// Driver Service   - driver availability, claims, live location
// Admin Service    - aggregate views and verification
type ServiceMode string

const (
	SessionService ServiceMode = "session-service"
	RideService    ServiceMode = "ride-service"
	DriverService  ServiceMode = "driver-service"
	AdminService   ServiceMode = "admin-service"
)

// RideType determines the fare rate.
type RideType string

const (
	RideStandard RideType = "standard"
	RideComfort  RideType = "comfort"
	RideShare    RideType = "share"
)

func (t RideType) Valid() bool {
	switch t {
	case RideStandard, RideComfort, RideShare:
		return true
	default:
		return false
	}
}

func (t RideType) String() string {
	return string(t)
}

// RideStatus is the ride lifecycle state.
type RideStatus string

const (
	StatusPending    RideStatus = "pending"
	StatusAccepted   RideStatus = "accepted"
	StatusInProgress RideStatus = "in_progress"
	StatusCompleted  RideStatus = "completed"
	StatusCancelled  RideStatus = "cancelled"
)

func (s RideStatus) String() string {
	return string(s)
}

// Terminal reports whether no further transition is legal from s.
func (s RideStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PaymentStatus tracks the payment side of a ride.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// UserRole is the fixed role of a profile.
type UserRole string

const (
	RoleRider  UserRole = "rider"
	RoleDriver UserRole = "driver"
	RoleAdmin  UserRole = "admin"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) Valid() bool {
	switch r {
	case RoleRider, RoleDriver, RoleAdmin:
		return true
	default:
		return false
	}
}
