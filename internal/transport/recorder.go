package transport

// Recorder receives an observability hook whenever an inbound or outbound
// event is dropped instead of delivered. A nil Recorder is valid and every
// call is a no-op.
type Recorder interface {
	EventDropped(reason string)
}
