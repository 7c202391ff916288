// Package challenge runs symmetric-key challenge-response exchanges.
//
// One-way (the responder proves itself to the initiator):
//
//	A -> B  challenge{RA}
//	B -> A  response{E_Kb(RA)}
//
// Two-way (both parties prove themselves):
//
//	A -> B  challenge{RA}
//	B -> A  response{RB, E_Kb(RA || RB)}
//	A -> B  confirm{E_Ka(RB)}
//
// In MAC mode the encryptions above are replaced by HMAC tags.
//
// An Exchange is a state machine advanced by ranging over Outbound. Each
// outbound message is handed to the caller before it is delivered, which is
// where attack interceptors substitute or mutate it. Time is a logical clock
// local to the exchange, so a run is a pure function of its plan, its random
// stream and the principal keys.
//
// Concurrency: an Exchange is NOT safe for concurrent use. An Engine is, and
// any number of exchanges may run on one Engine at once.
package challenge
