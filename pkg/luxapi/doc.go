// Package luxapi is the client for the miner control API.
//
// The control API is session based: a login yields a bearer token that
// every change request must carry. Three endpoints are used:
//
//	POST /api/login      {"miner_ip"}          -> {message, token, ttl?}
//	POST /api/profileset {"token", "profile"}  -> {message}
//	POST /api/curtail    {"token", "mode"}     -> {message}
//
// # Response Classification
//
// The change endpoints overload status 400 for two unrelated situations:
// the miner is already in the requested state, or the requested value is
// not valid. The client resolves this once, at the boundary, into an
// [Outcome] so callers never inspect messages themselves:
//
//	401                       -> Unauthorized
//	400, message "Miner ..."  -> AlreadyInState
//	400, any other message    -> InvalidValue
//	anything else             -> Applied
//
// Failures to reach the miner at all are returned as errors wrapping
// [ErrTransport] and never produce an Outcome.
package luxapi
