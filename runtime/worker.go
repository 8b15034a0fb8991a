// Package runtime owns event propagation and worker supervision. It
// moves events from the relay to the sinks without containing any
// business logic itself.
package runtime

import (
	"context"
	"reflect"

	"social-live/domain"
)

// Worker doesn't protect itself; the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

// EventSink consumes domain events fanned out by the pipeline.
type EventSink interface {
	Consume(ctx context.Context, e domain.DomainEvent) error
}

// WorkerName uses reflection to retrieve the type name of the worker,
// for logging and supervision purposes.
func WorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
