// Package authz is the single decision point for who may see and mutate
// orders. Handlers translate its sentinel errors into HTTP status codes
// and never re-implement role checks locally.
package authz

import (
	"errors"

	"github.com/littlelemon/api/internal/database"
	"github.com/littlelemon/api/internal/enum"
)

// Role is the closed set of caller roles for order decisions. A user
// holding both Manager and Delivery Crew membership acts as a Manager.
type Role int

const (
	RoleCustomer Role = iota
	RoleDeliveryCrew
	RoleManager
)

func (r Role) String() string {
	switch r {
	case RoleManager:
		return "manager"
	case RoleDeliveryCrew:
		return "delivery-crew"
	default:
		return "customer"
	}
}

// Identity is the authenticated caller with role flags resolved from
// group membership at request time.
type Identity struct {
	UserID         int64
	Username       string
	IsStaff        bool
	IsManager      bool
	IsDeliveryCrew bool
}

// Role collapses the membership flags into the decision role.
func (id Identity) Role() Role {
	switch {
	case id.IsManager:
		return RoleManager
	case id.IsDeliveryCrew:
		return RoleDeliveryCrew
	default:
		return RoleCustomer
	}
}

// Decision errors. Handlers map ErrForbidden to 403 and everything else
// here to 400; out-of-scope reads are a 404 decided via CanViewOrder.
var (
	ErrForbidden        = errors.New("you do not have permission to perform this action")
	ErrInvalidStatus    = errors.New("status: the only allowed value is 1 (delivered)")
	ErrUnassignedOrder  = errors.New("status: order has no delivery crew assigned")
	ErrAlreadyDelivered = errors.New("order has already been delivered")
	ErrNoUpdatableField = errors.New("request must include delivery_crew and/or status")
)

// CanViewOrder reports whether the order falls inside the caller's
// visibility scope. Out-of-scope orders are reported as not found, never
// as forbidden, so existence is not leaked.
func CanViewOrder(caller Identity, o database.Order) bool {
	switch caller.Role() {
	case RoleManager:
		return true
	case RoleDeliveryCrew:
		return o.DeliveryCrewID.Valid && o.DeliveryCrewID.Int64 == caller.UserID
	default:
		return o.UserID == caller.UserID
	}
}

// UpdateRequest carries the fields present in a PATCH body. Nil means
// the field was absent.
type UpdateRequest struct {
	DeliveryCrew *int64
	Status       *int16
}

// DecideUpdate applies the order transition table:
//
//	pending, unassigned + Manager sets delivery_crew      -> pending, assigned
//	pending, assigned   + Manager sets status=1           -> delivered
//	pending, assigned   + assigned crew sets status=1     -> delivered
//	pending, unassigned + Manager sets status=1 alone     -> rejected
//	delivered           + anyone mutates anything         -> rejected
//
// A Manager may assign and deliver in a single request. Every other
// combination of caller and field is forbidden.
func DecideUpdate(caller Identity, o database.Order, req UpdateRequest) error {
	if req.DeliveryCrew == nil && req.Status == nil {
		return ErrNoUpdatableField
	}

	if o.Status == enum.OrderStatusDelivered {
		return ErrAlreadyDelivered
	}

	if req.DeliveryCrew != nil && caller.Role() != RoleManager {
		return ErrForbidden
	}

	if req.Status != nil {
		if *req.Status != enum.OrderStatusDelivered {
			return ErrInvalidStatus
		}
		switch caller.Role() {
		case RoleManager:
			// Assignment in the same request satisfies the precondition.
			if !o.DeliveryCrewID.Valid && req.DeliveryCrew == nil {
				return ErrUnassignedOrder
			}
		case RoleDeliveryCrew:
			if !o.DeliveryCrewID.Valid || o.DeliveryCrewID.Int64 != caller.UserID {
				return ErrForbidden
			}
		default:
			return ErrForbidden
		}
	}

	return nil
}
