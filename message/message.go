// Package message defines the typed protocol spoken between the store handle
// and its worker. The two directions are independent channels: requests flow
// client to worker, replies flow worker to client.
//
// Every operation carries a correlation ID assigned by the client and echoed
// on each reply it produces, so replies route to the right pending caller by
// ID rather than by queue position. Handshake and teardown messages (Init,
// Ready, Shutdown, Closed) carry no ID.
package message

// Request is a client-to-worker message.
type Request interface {
	request()
}

// Reply is a worker-to-client message.
type Reply interface {
	reply()
}

// Init carries the store file path and configuration to the worker. It must
// be the first request after the Ready handshake; the worker ignores anything
// else until it arrives.
type Init struct {
	Path  string
	Debug bool
}

// Add asks the worker to append one value to the store file. The worker
// answers with exactly one Ack carrying the same ID.
type Add struct {
	ID    uint64
	Value string
}

// Query asks the worker to scan the store file for values containing Text as
// a substring. The worker answers with zero or more Result replies followed
// by exactly one Done, all carrying the same ID.
type Query struct {
	ID   uint64
	Text string
}

// Shutdown asks the worker to stop. Requests already queued ahead of it are
// processed first; the worker then answers Closed and exits.
type Shutdown struct{}

// Ready is the worker's first reply, announcing the channel the client must
// send requests on.
type Ready struct {
	Requests chan<- Request
}

// Ack completes an Add. Err is non-nil if the append failed.
type Ack struct {
	ID  uint64
	Err error
}

// Result carries one matching value for a Query.
type Result struct {
	ID    uint64
	Value string
}

// Done terminates a Query's result stream. Err is non-nil if the scan failed
// partway; results already delivered remain valid.
type Done struct {
	ID  uint64
	Err error
}

// Closed acknowledges a Shutdown. It is the worker's final reply.
type Closed struct{}

func (Init) request()     {}
func (Add) request()      {}
func (Query) request()    {}
func (Shutdown) request() {}

func (Ready) reply()  {}
func (Ack) reply()    {}
func (Result) reply() {}
func (Done) reply()   {}
func (Closed) reply() {}
