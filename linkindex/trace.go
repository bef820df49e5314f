// Copyright (c) The OpenTofu Authors
// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package linkindex

import (
	"context"

	"github.com/opentofu/linkbuilder/apihost"
)

// IndexTrace allows a caller of [Client.Index] to be notified about
// potentially-interesting events during the index fetch process, in case
// they want to generate log messages, telemetry traces, or similar.
//
// Use [ContextWithIndexTrace] to derive a [context.Context] containing
// an instance of this type, and use that context when calling
// [Client.Index] or one of its shortcut variants.
//
// All of the function-typed fields may either be left as nil or set to
// a function with the specified signature, unless otherwise stated. If
// nil then the call for the corresponding event will be skipped.
//
// "Start" functions return their own [context.Context] that should be
// either exactly the context given or a child of that context. This can
// be used to track per-request values such as distributed tracing spans.
type IndexTrace struct {
	// FetchStart is called when an index fetch is about to begin for a
	// specific hostname.
	//
	// This should return a [context.Context] to be used for the fetch
	// HTTP requests, and it will then be passed as the context to either
	// FetchSuccess or FetchFailure once the request is complete to allow
	// terminating distributed tracing spans, etc.
	FetchStart func(ctx context.Context, host apihost.Hostname) context.Context

	// FetchSuccess is called after an index fetch is complete if the
	// result was successful.
	//
	// The given context has the same values as the one returned by the earlier
	// call to FetchStart.
	FetchSuccess func(ctx context.Context, host apihost.Hostname)

	// FetchFailure is called after an index fetch is complete if the
	// request encountered an error.
	//
	// The given context has the same values as the one returned by the earlier
	// call to FetchStart.
	FetchFailure func(ctx context.Context, host apihost.Hostname, err error)

	// IndexCached is called instead of FetchStart and its completion
	// callbacks if an index request is served from the cache of previous
	// results rather than by fetching over the network.
	IndexCached func(ctx context.Context, host apihost.Hostname)
}

func ContextWithIndexTrace(parent context.Context, trace *IndexTrace) context.Context {
	return context.WithValue(parent, indexTraceKey, trace)
}

func (t *IndexTrace) fetchStart(ctx context.Context, host apihost.Hostname) context.Context {
	if t.FetchStart == nil {
		return ctx
	}
	return t.FetchStart(ctx, host)
}

func (t *IndexTrace) fetchSuccess(ctx context.Context, host apihost.Hostname) {
	if t.FetchSuccess == nil {
		return
	}
	t.FetchSuccess(ctx, host)
}

func (t *IndexTrace) fetchFailure(ctx context.Context, host apihost.Hostname, err error) {
	if t.FetchFailure == nil {
		return
	}
	t.FetchFailure(ctx, host, err)
}

func (t *IndexTrace) indexCached(ctx context.Context, host apihost.Hostname) {
	if t.IndexCached == nil {
		return
	}
	t.IndexCached(ctx, host)
}

func indexTraceFromContext(ctx context.Context) *IndexTrace {
	trace, ok := ctx.Value(indexTraceKey).(*IndexTrace)
	if !ok {
		trace = noTrace
	}
	return trace
}

type indexTraceKeyType string

const indexTraceKey = indexTraceKeyType("")

var noTrace = &IndexTrace{}
