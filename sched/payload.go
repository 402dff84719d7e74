package sched

import "github.com/vmihailenco/msgpack/v5"

// AsyncTaskResult is the shape a worker goroutine's blocking call
// result takes while crossing into the job queue. Workers never
// construct a value.Value (the heap isn't safe to touch outside the
// main loop, spec.md §5), so they msgpack-encode whatever primitive
// Go data they produced; the main loop decodes it back and is the
// only place that turns Data into heap Values.
type AsyncTaskResult struct {
	OK      bool        `msgpack:"ok"`
	Data    interface{} `msgpack:"data,omitempty"`
	ErrText string      `msgpack:"err,omitempty"`
}

// EncodeResult msgpack-encodes a successful result.
func EncodeResult(data interface{}) ([]byte, error) {
	return msgpack.Marshal(AsyncTaskResult{OK: true, Data: data})
}

// EncodeError msgpack-encodes a failed result.
func EncodeError(err error) ([]byte, error) {
	return msgpack.Marshal(AsyncTaskResult{OK: false, ErrText: err.Error()})
}

// DecodeResult reverses EncodeResult/EncodeError.
func DecodeResult(b []byte) (AsyncTaskResult, error) {
	var r AsyncTaskResult
	err := msgpack.Unmarshal(b, &r)
	return r, err
}
