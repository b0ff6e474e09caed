package trace

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// FuncID identifies an intercepted entry point or interface method.
type FuncID uint32

const (
	FuncUnknown FuncID = iota

	// Module exports.
	FuncCreateDevice
	FuncGetDebugInterface
	FuncSerializeRootSignature
	FuncCreateRootSignatureDeserializer

	// Device methods.
	FuncCreateCommandQueue
	FuncCreateCommandAllocator
	FuncCreateCommandList
	FuncCreateFence
	FuncCreateHeap
	FuncCreateCommittedResource
	FuncCreateGraphicsPipelineState
	FuncCreateComputePipelineState
	FuncCreateRootSignature
	FuncCreateDescriptorHeap
	FuncCreateQueryHeap
	FuncCreateCommandSignature

	// Command queue methods.
	FuncExecuteCommandLists
	FuncSignal

	// Command list methods.
	FuncClose
	FuncReset
	FuncDrawInstanced
	FuncDrawIndexedInstanced
	FuncDispatch
	FuncCopyBufferRegion
	FuncCopyTextureRegion
	FuncCopyResource
	FuncCopyTiles
	FuncResolveSubresource
	FuncResourceBarrier
	FuncClearDepthStencilView
	FuncClearRenderTargetView
	FuncClearUnorderedAccessViewUint
	FuncClearUnorderedAccessViewFloat
	FuncExecuteBundle
	FuncExecuteIndirect
	FuncSetPipelineState
	FuncSetGraphicsRootSignature
	FuncSetComputeRootSignature

	numFuncs
)

var funcNames = [numFuncs]string{
	FuncUnknown:                         "Unknown",
	FuncCreateDevice:                    "D3D12CreateDevice",
	FuncGetDebugInterface:               "D3D12GetDebugInterface",
	FuncSerializeRootSignature:          "D3D12SerializeRootSignature",
	FuncCreateRootSignatureDeserializer: "D3D12CreateRootSignatureDeserializer",
	FuncCreateCommandQueue:              "ID3D12Device_CreateCommandQueue",
	FuncCreateCommandAllocator:          "ID3D12Device_CreateCommandAllocator",
	FuncCreateCommandList:               "ID3D12Device_CreateCommandList",
	FuncCreateFence:                     "ID3D12Device_CreateFence",
	FuncCreateHeap:                      "ID3D12Device_CreateHeap",
	FuncCreateCommittedResource:         "ID3D12Device_CreateCommittedResource",
	FuncCreateGraphicsPipelineState:     "ID3D12Device_CreateGraphicsPipelineState",
	FuncCreateComputePipelineState:      "ID3D12Device_CreateComputePipelineState",
	FuncCreateRootSignature:             "ID3D12Device_CreateRootSignature",
	FuncCreateDescriptorHeap:            "ID3D12Device_CreateDescriptorHeap",
	FuncCreateQueryHeap:                 "ID3D12Device_CreateQueryHeap",
	FuncCreateCommandSignature:          "ID3D12Device_CreateCommandSignature",
	FuncExecuteCommandLists:             "ID3D12CommandQueue_ExecuteCommandLists",
	FuncSignal:                          "ID3D12CommandQueue_Signal",
	FuncClose:                           "ID3D12GraphicsCommandList_Close",
	FuncReset:                           "ID3D12GraphicsCommandList_Reset",
	FuncDrawInstanced:                   "ID3D12GraphicsCommandList_DrawInstanced",
	FuncDrawIndexedInstanced:            "ID3D12GraphicsCommandList_DrawIndexedInstanced",
	FuncDispatch:                        "ID3D12GraphicsCommandList_Dispatch",
	FuncCopyBufferRegion:                "ID3D12GraphicsCommandList_CopyBufferRegion",
	FuncCopyTextureRegion:               "ID3D12GraphicsCommandList_CopyTextureRegion",
	FuncCopyResource:                    "ID3D12GraphicsCommandList_CopyResource",
	FuncCopyTiles:                       "ID3D12GraphicsCommandList_CopyTiles",
	FuncResolveSubresource:              "ID3D12GraphicsCommandList_ResolveSubresource",
	FuncResourceBarrier:                 "ID3D12GraphicsCommandList_ResourceBarrier",
	FuncClearDepthStencilView:           "ID3D12GraphicsCommandList_ClearDepthStencilView",
	FuncClearRenderTargetView:           "ID3D12GraphicsCommandList_ClearRenderTargetView",
	FuncClearUnorderedAccessViewUint:    "ID3D12GraphicsCommandList_ClearUnorderedAccessViewUint",
	FuncClearUnorderedAccessViewFloat:   "ID3D12GraphicsCommandList_ClearUnorderedAccessViewFloat",
	FuncExecuteBundle:                   "ID3D12GraphicsCommandList_ExecuteBundle",
	FuncExecuteIndirect:                 "ID3D12GraphicsCommandList_ExecuteIndirect",
	FuncSetPipelineState:                "ID3D12GraphicsCommandList_SetPipelineState",
	FuncSetGraphicsRootSignature:        "ID3D12GraphicsCommandList_SetGraphicsRootSignature",
	FuncSetComputeRootSignature:         "ID3D12GraphicsCommandList_SetComputeRootSignature",
}

func (f FuncID) String() string {
	if f >= numFuncs {
		return funcNames[FuncUnknown]
	}
	return funcNames[f]
}

// FuncFromName returns the id with the given name.
func FuncFromName(name string) (FuncID, bool) {
	for i, n := range funcNames {
		if i != int(FuncUnknown) && n == name {
			return FuncID(i), true
		}
	}
	return FuncUnknown, false
}

// DefaultProfiled lists the command list methods that do GPU work.
var DefaultProfiled = []FuncID{
	FuncDrawInstanced,
	FuncDrawIndexedInstanced,
	FuncDispatch,
	FuncCopyBufferRegion,
	FuncCopyTextureRegion,
	FuncCopyResource,
	FuncCopyTiles,
	FuncResolveSubresource,
	FuncClearDepthStencilView,
	FuncClearRenderTargetView,
	FuncClearUnorderedAccessViewUint,
	FuncClearUnorderedAccessViewFloat,
	FuncExecuteBundle,
	FuncExecuteIndirect,
}

// ErrUnknownFunc is returned when a function name is not recognized.
var ErrUnknownFunc = errors.New("unknown function")

// FuncTable is the allow-list of functions that get a timing bracket.
type FuncTable struct {
	mu       sync.RWMutex
	profiled map[FuncID]struct{}
}

// NewFuncTable returns a table profiling ids, or DefaultProfiled when ids is
// empty.
func NewFuncTable(ids ...FuncID) *FuncTable {
	if len(ids) == 0 {
		ids = DefaultProfiled
	}
	t := &FuncTable{}
	t.set(ids)
	return t
}

func (t *FuncTable) set(ids []FuncID) {
	m := make(map[FuncID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	t.mu.Lock()
	t.profiled = m
	t.mu.Unlock()
}

// ShouldProfile reports whether f is on the allow-list.
func (t *FuncTable) ShouldProfile(f FuncID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.profiled[f]
	return ok
}

// SetProfiled replaces the allow-list by name. Nothing changes if any name is
// unknown.
func (t *FuncTable) SetProfiled(names []string) error {
	ids := make([]FuncID, 0, len(names))
	for _, n := range names {
		id, ok := FuncFromName(n)
		if !ok {
			return errors.Wrapf(ErrUnknownFunc, "%q", n)
		}
		ids = append(ids, id)
	}
	t.set(ids)
	return nil
}

// Profiled returns the allow-list in id order.
func (t *FuncTable) Profiled() []FuncID {
	t.mu.RLock()
	ids := make([]FuncID, 0, len(t.profiled))
	for id := range t.profiled {
		ids = append(ids, id)
	}
	t.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
