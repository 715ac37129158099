// Package ffi implements the entry points of the node for a foreign caller.
//
// The caller only holds numerical references to the handles of a table. Each
// entry point looks up the runtime handle, decodes its JSON argument, calls the
// runtime and folds the outcome into a result envelope. The package is pure Go
// so that the entry points can be tested without cgo.
package ffi

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"go.dedis.ch/rgbd"
	"go.dedis.ch/rgbd/boundary"
	"go.dedis.ch/rgbd/config"
	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/internal/typetag"
	"go.dedis.ch/rgbd/node"
	"go.dedis.ch/rgbd/stash"
	"go.dedis.ch/rgbd/stash/kvstash"
	"golang.org/x/xerrors"
)

// NulText replaces a text that cannot be given to the caller because it
// contains a NUL character.
const NulText = "Error converting string: contains a null-char"

// Session is the value behind the runtime handle given to the caller.
type Session struct {
	Runtime *node.Runtime

	closer io.Closer
}

// Close releases the runtime and the log output.
func (s *Session) Close() error {
	err := s.Runtime.Close()
	if err != nil {
		return xerrors.Errorf("couldn't close runtime: %v", err)
	}

	if s.closer != nil {
		err = s.closer.Close()
		if err != nil {
			return xerrors.Errorf("couldn't close log: %v", err)
		}
	}

	return nil
}

// Ref is the reference of a result given to the caller.
type Ref struct {
	Ok  bool
	ID  uintptr
	Tag typetag.Tag
}

// Exports is the set of entry points over a table of handles.
type Exports struct {
	table     *boundary.Table
	logger    zerolog.Logger
	openStash func(path string) (stash.Stash, error)
	renderers map[typetag.Tag]renderFn
}

// NewExports returns the entry points using the table.
func NewExports(table *boundary.Table) *Exports {
	return &Exports{
		table:     table,
		logger:    rgbd.Logger.With().Str("component", "ffi").Logger(),
		openStash: openStash,
		renderers: makeRenderers(),
	}
}

// Table returns the table of the handles.
func (e *Exports) Table() *boundary.Table {
	return e.table
}

// Publish stores the payload of the result in the table and returns its
// reference.
func (e *Exports) Publish(r boundary.Result) Ref {
	return Ref{
		Ok:  r.IsOk(),
		ID:  e.table.Put(r.Payload),
		Tag: r.Payload.Tag(),
	}
}

// Free removes the handle of the reference from the table.
func (e *Exports) Free(id uintptr) error {
	_, err := e.table.Take(id)
	return err
}

// Start creates a runtime with the JSON configuration and returns a result
// with the runtime handle.
func (e *Exports) Start(cfgJSON string) boundary.Result {
	e.logger.Debug().Str("call", "start").Msg("starting runtime")

	session, err := e.start(cfgJSON)

	return boundary.FromResult(session, err)
}

func (e *Exports) start(cfgJSON string) (*Session, error) {
	cfg, err := config.FromJSON([]byte(cfgJSON))
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, xerrors.Errorf("invalid config: %v", err)
	}

	network, err := cfg.Chain()
	if err != nil {
		return nil, err
	}

	err = os.MkdirAll(cfg.DataDir, 0o700)
	if err != nil {
		return nil, xerrors.Errorf("couldn't create data directory: %v", err)
	}

	s, err := e.openStash(cfg.StashPath())
	if err != nil {
		return nil, xerrors.Errorf("couldn't open stash: %v", err)
	}

	session := &Session{
		Runtime: node.NewRuntime(network, s),
	}

	if cfg.Log.File != "" {
		session.closer = cfg.Log.Apply()
	}

	return session, nil
}

// Issue issues a new asset with the JSON arguments and returns a result with
// the contract.
func (e *Exports) Issue(rt uintptr, argsJSON string) boundary.Result {
	var args IssueArgs

	session, err := e.prepare("issue", rt, argsJSON, &args)
	if err != nil {
		return boundary.Err(err)
	}

	req, err := args.Request()
	if err != nil {
		return boundary.Err(err)
	}

	c, err := session.Runtime.Issue(req)

	return boundary.FromResult(c, err)
}

// ListContracts returns a result with the identifiers of the known contracts.
func (e *Exports) ListContracts(rt uintptr) boundary.Result {
	session, err := e.prepare("list_contracts", rt, "", nil)
	if err != nil {
		return boundary.Err(err)
	}

	ids, err := session.Runtime.ListContracts()

	return boundary.FromResult(ids, err)
}

// GetContract returns a result with the parts of the contract selected by the
// JSON arguments.
func (e *Exports) GetContract(rt uintptr, argsJSON string) boundary.Result {
	var args ContractArgs

	session, err := e.prepare("get_contract", rt, argsJSON, &args)
	if err != nil {
		return boundary.Err(err)
	}

	c, err := session.Runtime.GetContract(args.Request())

	return boundary.FromResult(c, err)
}

// GetContractState returns a result with the state of the contract of the
// JSON arguments.
func (e *Exports) GetContractState(rt uintptr, argsJSON string) boundary.Result {
	var args ContractArgs

	session, err := e.prepare("get_contract_state", rt, argsJSON, &args)
	if err != nil {
		return boundary.Err(err)
	}

	state, err := session.Runtime.GetContractState(args.ContractID)

	return boundary.FromResult(state, err)
}

// AcceptContract validates and stores the consignment of the JSON arguments,
// and returns a result with the validity.
func (e *Exports) AcceptContract(rt uintptr, argsJSON string) boundary.Result {
	var args AcceptArgs

	session, err := e.prepare("accept_contract", rt, argsJSON, &args)
	if err != nil {
		return boundary.Err(err)
	}

	validity, err := session.Runtime.AcceptContract(args.Consignment, args.Force, e.progress)

	return boundary.FromResult(validity, err)
}

// AcceptTransfer validates and merges the transfer consignment of the JSON
// arguments, and returns a result with the validity.
func (e *Exports) AcceptTransfer(rt uintptr, argsJSON string) boundary.Result {
	var args AcceptArgs

	session, err := e.prepare("accept_transfer", rt, argsJSON, &args)
	if err != nil {
		return boundary.Err(err)
	}

	validity, err := session.Runtime.AcceptTransfer(args.Consignment, args.Force, e.progress)

	return boundary.FromResult(validity, err)
}

// ConsignTransfer returns a result with the transfer consignment for the
// endpoints of the JSON arguments.
func (e *Exports) ConsignTransfer(rt uintptr, argsJSON string) boundary.Result {
	var args ConsignArgs

	session, err := e.prepare("consign_transfer", rt, argsJSON, &args)
	if err != nil {
		return boundary.Err(err)
	}

	consignment, err := session.Runtime.ConsignTransfer(args.ContractID, args.Endpoints)

	return boundary.FromResult(consignment, err)
}

// Stop removes the runtime handle from the table and closes the runtime.
func (e *Exports) Stop(rt uintptr) boundary.Result {
	e.logger.Debug().Str("call", "stop").Uint64("runtime", uint64(rt)).Msg("stopping runtime")

	h, err := e.table.Get(rt)
	if err != nil {
		return boundary.Err(xerrors.Errorf("couldn't find runtime: %v", err))
	}

	session, err := boundary.Restore[*Session](h)
	if err != nil {
		return boundary.Err(xerrors.Errorf("couldn't restore runtime: %v", err))
	}

	_, err = e.table.Take(rt)
	if err != nil {
		e.logger.Warn().Err(err).Uint64("runtime", uint64(rt)).Msg("runtime handle already released")
	}

	err = (*session).Close()
	if err != nil {
		return boundary.Err(err)
	}

	return boundary.Ok(struct{}{})
}

// Render moves the payload of the reference out of the table and returns its
// text. The text of an error is returned as is unless it contains a NUL
// character, and the values are rendered in JSON.
func (e *Exports) Render(id uintptr) (string, error) {
	h, err := e.table.Get(id)
	if err != nil {
		return "", err
	}

	render, found := e.renderers[h.Tag()]
	if !h.IsRaw() && !found {
		return "", xerrors.Errorf("unsupported payload %v", h.Tag())
	}

	_, err = e.table.Take(id)
	if err != nil {
		return "", err
	}

	if h.IsRaw() {
		text, err := boundary.RestoreRaw(h)
		if err != nil {
			return "", err
		}

		if strings.IndexByte(text, 0) >= 0 {
			return NulText, nil
		}

		return text, nil
	}

	value, err := render(h)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return "", xerrors.Errorf("couldn't marshal payload: %v", err)
	}

	return string(data), nil
}

func (e *Exports) prepare(call string, rt uintptr, argsJSON string, args interface{}) (*Session, error) {
	e.logger.Debug().
		Str("call", call).
		Uint64("runtime", uint64(rt)).
		Int("size", len(argsJSON)).
		Msg("entry point called")

	h, err := e.table.Get(rt)
	if err != nil {
		return nil, xerrors.Errorf("couldn't find runtime: %v", err)
	}

	session, err := boundary.Borrow[*Session](h)
	if err != nil {
		return nil, xerrors.Errorf("couldn't borrow runtime: %v", err)
	}

	if args != nil {
		dec := json.NewDecoder(bytes.NewBufferString(argsJSON))
		dec.DisallowUnknownFields()

		err = dec.Decode(args)
		if err != nil {
			return nil, xerrors.Errorf("couldn't decode arguments: %v", err)
		}
	}

	return *session, nil
}

func (e *Exports) progress(text string) {
	e.logger.Debug().Str("progress", text).Msg("accept in progress")
}

type renderFn func(h *boundary.Handle) (interface{}, error)

func renderer[T any]() (typetag.Tag, renderFn) {
	return typetag.Of[T](), func(h *boundary.Handle) (interface{}, error) {
		return boundary.Restore[T](h)
	}
}

func makeRenderers() map[typetag.Tag]renderFn {
	renderers := make(map[typetag.Tag]renderFn)

	add := func(tag typetag.Tag, fn renderFn) {
		renderers[tag] = fn
	}

	add(renderer[contract.Contract]())
	add(renderer[contract.ContractState]())
	add(renderer[contract.Consignment]())
	add(renderer[[]contract.ContractID]())
	add(renderer[node.ContractValidity]())
	add(renderer[struct{}]())

	return renderers
}

func openStash(path string) (stash.Stash, error) {
	s, err := kvstash.Open(path)
	if err != nil {
		return nil, err
	}

	return s, nil
}
