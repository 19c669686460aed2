package tracing_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/canonical/go-ddl/tracing"
)

func TestStart_NoTracer(t *testing.T) {
	ctx := context.Background()

	spanCtx, span := tracing.Start(ctx, "ddl.Exec", "DROP PROPERTY Person.name")
	assert.Equal(t, ctx, spanCtx)

	span.RecordError(fmt.Errorf("boom"))
	span.End()
}

func TestStart_Tracer(t *testing.T) {
	tracer := &recorder{}
	ctx := tracing.WithTracer(context.Background(), tracer)

	_, span := tracing.Start(ctx, "ddl.Exec", "DROP PROPERTY Person.name")
	span.RecordError(fmt.Errorf("boom"))
	span.End()

	assert.Equal(t, []string{"start ddl.Exec DROP PROPERTY Person.name", "error boom", "end"}, tracer.events)
}

type recorder struct {
	events []string
}

func (r *recorder) Start(ctx context.Context, name, statement string) (context.Context, tracing.Span) {
	r.events = append(r.events, "start "+name+" "+statement)
	return ctx, r
}

func (r *recorder) RecordError(err error) {
	r.events = append(r.events, "error "+err.Error())
}

func (r *recorder) End() {
	r.events = append(r.events, "end")
}
