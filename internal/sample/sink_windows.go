//go:build windows

package main

import (
	"io"

	"github.com/perfstudio/go-apitrace/pkg/etw"
	"github.com/perfstudio/go-apitrace/pkg/trace"
)

func eventSink(provider string) (trace.Sink, io.Closer, error) {
	p, err := etw.NewProvider(provider)
	if err != nil {
		return nil, nil, err
	}
	return trace.NewEventSink(p), p, nil
}
