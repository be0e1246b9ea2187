package slimrouter

import "github.com/coder/websocket"

// HTTP status codes used by the router and exposed for middleware and
// resolvers. Only StatusOK, StatusNotFound and StatusInternalServerError are
// written by the router itself.
const (
	StatusSwitchingProtocols     = 101
	StatusOK                     = 200
	StatusCreated                = 201
	StatusNoContent              = 204
	StatusBadRequest             = 400
	StatusUnauthorized           = 401
	StatusPaymentRequired        = 402
	StatusForbidden              = 403
	StatusNotFound               = 404
	StatusConflict               = 409
	StatusInternalServerError    = 500
	StatusBandwidthLimitExceeded = 509
)

// Status represents a WebSocket close status code as defined in RFC 6455. Use
// these codes when calling Session.Close.
type Status = websocket.StatusCode

// WebSocket close status codes
const (
	StatusNormalClosure   Status = websocket.StatusNormalClosure   // 1000
	StatusGoingAway       Status = websocket.StatusGoingAway       // 1001
	StatusProtocolError   Status = websocket.StatusProtocolError   // 1002
	StatusUnsupportedData Status = websocket.StatusUnsupportedData // 1003
	StatusPolicyViolation Status = websocket.StatusPolicyViolation // 1008
	StatusMessageTooBig   Status = websocket.StatusMessageTooBig   // 1009
	StatusInternalError   Status = websocket.StatusInternalError   // 1011
	StatusTryAgainLater   Status = websocket.StatusTryAgainLater   // 1013
)
