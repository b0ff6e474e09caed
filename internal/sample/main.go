// Runs a simulated application against the interceptor and prints the trace
// it produced.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/perfstudio/go-apitrace"
	"github.com/perfstudio/go-apitrace/pkg/config"
	"github.com/perfstudio/go-apitrace/pkg/etwlogrus"
	"github.com/perfstudio/go-apitrace/pkg/handle"
	"github.com/perfstudio/go-apitrace/pkg/trace"
)

// simDriver stands in for the graphics runtime.
type simDriver struct {
	next atomic.Uint64
}

func (d *simDriver) mint() handle.Handle {
	return handle.Handle(0x10000 + d.next.Add(1)*0x100)
}

func (d *simDriver) CreateDevice(handle.Handle, uint32) (handle.Handle, error) { return d.mint(), nil }

func (d *simDriver) GetDebugInterface() (handle.Handle, error) { return d.mint(), nil }

func (d *simDriver) SerializeRootSignature(desc []byte) ([]byte, error) { return desc, nil }

func (d *simDriver) CreateRootSignatureDeserializer([]byte) (handle.Handle, error) {
	return d.mint(), nil
}

func (d *simDriver) ExecuteCommandLists(handle.Handle, []handle.Handle) {}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	frames := flag.Int("frames", 2, "frames to simulate")
	threads := flag.Int("threads", 4, "recording threads per frame")
	flag.Parse()

	if err := run(*configPath, *frames, *threads); err != nil {
		logrus.WithError(err).Fatal("sample failed")
	}
}

func run(configPath string, frames, threads int) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	log := logrus.StandardLogger()
	log.SetLevel(level)

	calls := trace.NewLog()
	sink := trace.Sink(calls)
	if cfg.ETWProvider != "" {
		hook, err := etwlogrus.NewHook(cfg.ETWProvider)
		if err != nil {
			return err
		}
		defer hook.Close()
		log.AddHook(hook)

		es, closer, err := eventSink(cfg.ETWProvider + "-Calls")
		if err != nil {
			return err
		}
		defer closer.Close()
		sink = trace.Tee(calls, es)
	}

	s, err := apitrace.NewSession(cfg, apitrace.WithLogger(log), apitrace.WithSink(sink))
	if err != nil {
		return err
	}
	defer s.Close()

	drv := &simDriver{}
	ic := apitrace.NewInterceptor(s, drv)
	if err := ic.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := ic.Shutdown(); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	device, err := ic.CreateDevice(0x1, 0xc000)
	if err != nil {
		return err
	}
	queue := ic.WrapChild(device, drv.mint(), handle.TypeCommandQueue, nil)
	lists := make([]handle.Handle, threads)
	for n := range lists {
		lists[n] = ic.WrapChild(device, drv.mint(), handle.TypeCommandList, nil)
	}

	for f := 0; f < frames; f++ {
		ic.BeginFrame()
		var wg sync.WaitGroup
		for n := range lists {
			wg.Add(1)
			go func(list handle.Handle) {
				defer wg.Done()
				for k := 0; k < 3; k++ {
					ic.Invoke(trace.FuncDrawInstanced, list, func() (string, int64) {
						return fmt.Sprintf("%d, 1, 0, 0", 3*(k+1)), trace.ReturnVoid
					})
				}
				ic.Invoke(trace.FuncClose, list, func() (string, int64) { return "", 0 })
			}(lists[n])
		}
		wg.Wait()
		if err := ic.ExecuteCommandLists(context.Background(), queue, lists); err != nil {
			return err
		}
		ic.EndFrame()
	}

	for _, r := range calls.Records() {
		line := fmt.Sprintf("frame=%d thread=%d %s(%s)", r.Frame, r.Thread, r.Func, r.Args)
		if r.SampleID != 0 {
			line += fmt.Sprintf(" sample=%d", r.SampleID)
		}
		if r.HasResult {
			line += fmt.Sprintf(" gpu=%s", r.Result.Duration)
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}
