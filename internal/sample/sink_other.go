//go:build !windows

package main

import (
	"io"

	"github.com/perfstudio/go-apitrace/pkg/etw"
	"github.com/perfstudio/go-apitrace/pkg/trace"
)

func eventSink(string) (trace.Sink, io.Closer, error) {
	return nil, nil, etw.ErrUnsupported
}
