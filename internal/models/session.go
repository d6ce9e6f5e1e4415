// internal/models/session.go
package models

// AdminChecker reports whether an address belongs to the admin set.
type AdminChecker interface {
	IsAdmin(address string) bool
}

// AdminSession is process-local. IsAuthorized is derived from the connected
// address and is only ever written by Connect and Disconnect.
type AdminSession struct {
	ConnectedAddress string `json:"connected_address,omitempty"`
	IsAuthorized     bool   `json:"is_authorized"`
}

// Connect switches the session to address and recomputes authorization.
func (s *AdminSession) Connect(address string, checker AdminChecker) {
	s.ConnectedAddress = address
	s.IsAuthorized = address != "" && checker != nil && checker.IsAdmin(address)
}

func (s *AdminSession) Disconnect() {
	s.ConnectedAddress = ""
	s.IsAuthorized = false
}

func (s *AdminSession) IsConnected() bool {
	return s.ConnectedAddress != ""
}
