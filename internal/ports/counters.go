package ports

// Counters is the in-memory accumulator the hot paths record into. It is
// an injected component, not ambient global state; the telemetry monitor
// owns its flush/reset lifecycle.
type Counters interface {
	RecordHit(source string)
	RecordMiss()
	RecordSet()
	RecordDelete(count int)
	RecordCacheError()
	RecordLoaderLoad()
	RecordPublish()
	RecordPublishError()
	RecordDropped()
	RecordUnauthorizedSubscribe()
}
