// Package async tracks the lifecycle of a single logical asynchronous
// request: which params are in flight, and the data or error it resolved
// with. Values are immutable; transitions return the next value.
package async

type Status string

const (
	NotStarted Status = "NOT_STARTED"
	Pending    Status = "PENDING"
	Finished   Status = "FINISHED"
	Failed     Status = "FAILED"
)

// Operation is the result slot for one request kind. Data is only valid
// when Status is Finished, Err only when Failed. Params records the input
// of the request the slot currently reflects, so late results for stale
// params can be ignored by the consumer (check For before trusting Data).
//
// No cancellation is modeled: if two requests race, the last one to
// resolve wins.
type Operation[Params comparable, Data any] struct {
	Status Status
	Data   Data
	Err    error
	Params Params
}

func (o Operation[P, D]) Started(params P) Operation[P, D] {
	return Operation[P, D]{Status: Pending, Params: params}
}

func (o Operation[P, D]) Done(params P, data D) Operation[P, D] {
	return Operation[P, D]{Status: Finished, Data: data, Params: params}
}

func (o Operation[P, D]) Failed(params P, err error) Operation[P, D] {
	return Operation[P, D]{Status: Failed, Err: err, Params: params}
}

func (o Operation[P, D]) Reset() Operation[P, D] {
	return Operation[P, D]{Status: NotStarted}
}

// For reports whether the slot currently tracks the given params.
func (o Operation[P, D]) For(params P) bool { return o.Params == params }

// FinishedFor reports whether data for exactly these params is available.
func (o Operation[P, D]) FinishedFor(params P) bool {
	return o.Status == Finished && o.Params == params
}

func (o Operation[P, D]) Idle() bool {
	return o.Status == NotStarted || o.Status == ""
}
