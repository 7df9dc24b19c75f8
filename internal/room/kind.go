package room

// Kind is carried explicitly alongside room identifiers inside the
// process. The prefixed string form (DIRECT_..., GROUP_...) is only the
// wire encoding at the HTTP/websocket boundary.
type Kind string

const (
	KindDirect  Kind = "direct"
	KindBooking Kind = "booking"
	KindGroup   Kind = "group"
	KindSupport Kind = "support"
	KindInquiry Kind = "inquiry"
)

func (k Kind) Valid() bool {
	switch k {
	case KindDirect, KindBooking, KindGroup, KindSupport, KindInquiry:
		return true
	}
	return false
}

// PairWise reports whether the kind derives its identifier from a
// sorted participant pair rather than an entity id.
func (k Kind) PairWise() bool {
	return k == KindDirect || k == KindBooking
}

// Room lifecycle states.
const (
	StatusActive   = "active"
	StatusClosed   = "closed"
	StatusArchived = "archived"
)

// Inquiry sub-states. Only accepted inquiries transition their room to
// active; rejected rooms never do.
const (
	InquiryRequested = "requested"
	InquiryAccepted  = "accepted"
	InquiryRejected  = "rejected"
)

// Participant roles.
type Role string

const (
	RoleTenant      Role = "tenant"
	RoleOwner       Role = "owner"
	RoleAreaManager Role = "area_manager"
	RoleSuperAdmin  Role = "super_admin"
	RoleAnonymous   Role = "anonymous"
)

// CanOverrideClosed reports whether the role may send to or reopen a
// closed room.
func (r Role) CanOverrideClosed() bool {
	return r == RoleSuperAdmin
}

// IsMonitor reports whether sessions identified with this role are
// auto-subscribed to the administrative monitor room.
func (r Role) IsMonitor() bool {
	return r == RoleSuperAdmin
}
