// Package main is the shared library of the node for foreign callers. It is
// built with:
//
//	go build -buildmode=c-shared -o librgbd.so ./cmd/librgbd
//
// Every entry point returns a result with the opaque reference of a handle.
// The handle of the runtime is given back to the other entry points, and the
// other handles are consumed by rgbd_result_string or rgbd_handle_free.
package main

/*
#include <stdint.h>
#include <stdlib.h>

typedef struct {
	uintptr_t ptr;
	uint64_t ty;
} COpaqueStruct;

typedef enum {
	CResultOk = 0,
	CResultErr = 1,
} CResultValue;

typedef struct {
	CResultValue result;
	COpaqueStruct inner;
} CResult;
*/
import "C"

import (
	"unsafe"

	"go.dedis.ch/rgbd"
	"go.dedis.ch/rgbd/boundary"
	"go.dedis.ch/rgbd/ffi"
)

var exports = ffi.NewExports(boundary.NewTable())

//export rgbd_start
func rgbd_start(cfg *C.char) C.CResult {
	return toC(exports.Start(C.GoString(cfg)))
}

//export rgbd_issue
func rgbd_issue(rt C.COpaqueStruct, args *C.char) C.CResult {
	return toC(exports.Issue(uintptr(rt.ptr), C.GoString(args)))
}

//export rgbd_list_contracts
func rgbd_list_contracts(rt C.COpaqueStruct) C.CResult {
	return toC(exports.ListContracts(uintptr(rt.ptr)))
}

//export rgbd_get_contract
func rgbd_get_contract(rt C.COpaqueStruct, args *C.char) C.CResult {
	return toC(exports.GetContract(uintptr(rt.ptr), C.GoString(args)))
}

//export rgbd_get_contract_state
func rgbd_get_contract_state(rt C.COpaqueStruct, args *C.char) C.CResult {
	return toC(exports.GetContractState(uintptr(rt.ptr), C.GoString(args)))
}

//export rgbd_accept_contract
func rgbd_accept_contract(rt C.COpaqueStruct, args *C.char) C.CResult {
	return toC(exports.AcceptContract(uintptr(rt.ptr), C.GoString(args)))
}

//export rgbd_accept_transfer
func rgbd_accept_transfer(rt C.COpaqueStruct, args *C.char) C.CResult {
	return toC(exports.AcceptTransfer(uintptr(rt.ptr), C.GoString(args)))
}

//export rgbd_consign_transfer
func rgbd_consign_transfer(rt C.COpaqueStruct, args *C.char) C.CResult {
	return toC(exports.ConsignTransfer(uintptr(rt.ptr), C.GoString(args)))
}

//export rgbd_stop
func rgbd_stop(rt C.COpaqueStruct) C.CResult {
	return toC(exports.Stop(uintptr(rt.ptr)))
}

// rgbd_result_string consumes the handle and returns its text, which is the
// message of an error or the JSON of a value. It returns NULL if the handle
// cannot be rendered. The string must be released with rgbd_string_free.
//
//export rgbd_result_string
func rgbd_result_string(inner C.COpaqueStruct) *C.char {
	text, err := exports.Render(uintptr(inner.ptr))
	if err != nil {
		rgbd.Logger.Warn().Err(err).Msg("couldn't render handle")
		return nil
	}

	return C.CString(text)
}

//export rgbd_string_free
func rgbd_string_free(s *C.char) {
	C.free(unsafe.Pointer(s))
}

// rgbd_handle_free releases a handle without reading it. It returns zero on
// success.
//
//export rgbd_handle_free
func rgbd_handle_free(inner C.COpaqueStruct) C.int {
	err := exports.Free(uintptr(inner.ptr))
	if err != nil {
		return -1
	}

	return 0
}

func toC(r boundary.Result) C.CResult {
	ref := exports.Publish(r)

	res := C.CResult{
		result: C.CResultOk,
		inner: C.COpaqueStruct{
			ptr: C.uintptr_t(ref.ID),
			ty:  C.uint64_t(ref.Tag),
		},
	}

	if !ref.Ok {
		res.result = C.CResultErr
	}

	return res
}

func main() {}
