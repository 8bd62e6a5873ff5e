package models

// Identity is the opaque uid of the signed-in principal. The zero value
// means "guest" (no identity attached).
type Identity string

// GuestNamespace is the storage namespace shared by all signed-out sessions
// on one device.
const GuestNamespace = "guest"

// Guest is the identity of a signed-out session.
const Guest Identity = ""

// IsGuest reports whether no identity is attached.
func (i Identity) IsGuest() bool {
	return i == ""
}

// Namespace returns the local-storage namespace for this identity. Guest
// data lives under a fixed namespace so a later sign-in can migrate it;
// there is no shared namespace that both a guest and a signed-in user read.
func (i Identity) Namespace() string {
	if i.IsGuest() {
		return GuestNamespace
	}
	return string(i)
}
