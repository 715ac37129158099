package node

import (
	"sync"

	"github.com/rs/zerolog"
	"go.dedis.ch/rgbd"
	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/fault"
	"go.dedis.ch/rgbd/rpc"
	"go.dedis.ch/rgbd/stash"
	"go.dedis.ch/rgbd/validation"
	"go.dedis.ch/rgbd/validation/simple"
	"golang.org/x/xerrors"
)

// schemaName is the name of the contract service reported in the errors of
// the validation.
const schemaName = "fungible"

// Option is the type of option to set some fields of a runtime.
type Option func(*Runtime)

// WithEngine sets the validation engine of the runtime.
func WithEngine(engine validation.Engine) Option {
	return func(r *Runtime) {
		r.engine = engine
	}
}

// WithResolver sets the transaction resolver of the runtime.
func WithResolver(resolver validation.TxResolver) Option {
	return func(r *Runtime) {
		r.resolver = resolver
	}
}

// Runtime is the runtime of the node.
type Runtime struct {
	sync.Mutex

	network  contract.Chain
	stash    stash.Stash
	engine   validation.Engine
	resolver validation.TxResolver
	logger   zerolog.Logger
}

// NewRuntime returns a runtime for the network using the stash. By default,
// it uses the simple validation engine and trusts every transaction.
func NewRuntime(network contract.Chain, s stash.Stash, opts ...Option) *Runtime {
	r := &Runtime{
		network:  network,
		stash:    s,
		engine:   simple.NewEngine(),
		resolver: validation.TrustingResolver{},
		logger:   rgbd.Logger.With().Str("component", "runtime").Str("network", string(network)).Logger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Network returns the network of the runtime.
func (r *Runtime) Network() contract.Chain {
	return r.network
}

// Issue creates the genesis of a new asset, stores the contract and returns
// it.
func (r *Runtime) Issue(req IssueRequest) (contract.Contract, error) {
	if req.Network != r.network {
		return contract.Contract{}, apiError(fault.NewMalformedArgument("issue", "network"))
	}

	if req.Ticker == "" {
		return contract.Contract{}, apiError(fault.NewMissedArgument("issue", "ticker"))
	}

	if req.Name == "" {
		return contract.Contract{}, apiError(fault.NewMissedArgument("issue", "name"))
	}

	if req.IssueStructure.Kind == contract.MultipleIssues && req.IssueStructure.ReissueControl == nil {
		return contract.Contract{}, apiError(fault.NewMissedArgument("issue", "reissue_control"))
	}

	assignments := make([]contract.Assignment, 0, len(req.Allocations))

	for _, alloc := range req.Allocations {
		if alloc.Txid == nil {
			return contract.Contract{}, apiError(fault.NewMalformedArgument("issue", "allocations"))
		}

		amount, err := alloc.Amount(req.Precision)
		if err != nil {
			return contract.Contract{}, newError(fault.APIDomain(
				fault.NewMalformedArgument("issue", "allocations")), fault.Broker(),
				xerrors.Errorf("invalid allocation: %v", err))
		}

		assignments = append(assignments, contract.Assignment{
			Seal:   contract.NewOutPoint(*alloc.Txid, alloc.Vout),
			Amount: amount,
		})
	}

	_, err := contract.SumAssignments(assignments)
	if err != nil {
		return contract.Contract{}, newError(fault.APIDomain(
			fault.NewMalformedArgument("issue", "allocations")), fault.Broker(),
			xerrors.Errorf("invalid allocations: %v", err))
	}

	if len(assignments) == 0 {
		assignments = nil
	}

	genesis := contract.Genesis{
		Network:        req.Network,
		Ticker:         req.Ticker,
		Name:           req.Name,
		Description:    req.Description,
		Precision:      req.Precision,
		IssueStructure: req.IssueStructure,
		Assignments:    assignments,
		PruneSeals:     req.PruneSeals,
		DustLimit:      req.DustLimit,
	}

	c, err := contract.NewContract(genesis)
	if err != nil {
		return c, newError(fault.NewDomain(fault.DomainInternal), fault.Broker(), err)
	}

	r.Lock()
	defer r.Unlock()

	_, err = r.stash.Store(c)
	if err != nil {
		return c, newError(fault.NewDomain(fault.DomainStorage), fault.Stash(), err)
	}

	r.logger.Info().
		Str("contract", c.ID.String()).
		Str("ticker", c.Genesis.Ticker).
		Uint64("issued", c.Genesis.IssuedAmount()).
		Msg("asset issued")

	return c, nil
}

// AcceptContract validates the consignment of a contract and stores it if it
// is valid. The warnings of the validation are ignored when force is set.
func (r *Runtime) AcceptContract(c contract.Consignment, force bool,
	progress Progress) (ContractValidity, error) {

	if c.Kind != contract.ContractConsignment {
		return ContractValidity{}, apiError(fault.NewMalformedArgument("accept_contract", "consignment"))
	}

	return r.accept(c, force, progress)
}

// AcceptTransfer validates a transfer consignment and merges the history into
// the stash if it is valid. The warnings of the validation are ignored when
// force is set.
func (r *Runtime) AcceptTransfer(c contract.Consignment, force bool,
	progress Progress) (ContractValidity, error) {

	if c.Kind != contract.TransferConsignment {
		return ContractValidity{}, apiError(fault.NewMalformedArgument("accept_transfer", "consignment"))
	}

	return r.accept(c, force, progress)
}

func (r *Runtime) accept(c contract.Consignment, force bool, progress Progress) (ContractValidity, error) {
	progress.report("validating %v consignment of %v", c.Kind, c.Contract.ID)

	status, err := r.engine.Validate(r.network, c, r.resolver)
	if err != nil {
		var resolverErr validation.ResolverError
		if xerrors.As(err, &resolverErr) {
			return ContractValidity{}, newError(fault.NewDomain(fault.DomainBitcoin), fault.Broker(), err)
		}

		return ContractValidity{}, newError(fault.NewDomain(fault.DomainSchema),
			fault.Contract(schemaName), err)
	}

	validity := status.Validity()

	r.logger.Debug().
		Str("contract", c.Contract.ID.String()).
		Stringer("status", status).
		Bool("force", force).
		Msg("consignment validated")

	switch validity {
	case validation.Invalid:
		return Invalid(status), nil
	case validation.UnresolvedTransactions:
		return UnknownTxids(status.UnresolvedTxids), nil
	case validation.Warned:
		if !force {
			return Invalid(status), nil
		}
	}

	progress.report("storing contract %v", c.Contract.ID)

	r.Lock()
	defer r.Unlock()

	conflicts, err := r.conflicts(c.Contract)
	if err != nil {
		return ContractValidity{}, err
	}

	if len(conflicts) > 0 {
		status.Failures = append(status.Failures, conflicts...)

		r.logger.Debug().
			Str("contract", c.Contract.ID.String()).
			Int("conflicts", len(conflicts)).
			Msg("consignment conflicts with the stash")

		return Invalid(status), nil
	}

	added, err := r.stash.Store(c.Contract)
	if err != nil {
		return ContractValidity{}, newError(fault.NewDomain(fault.DomainStorage), fault.Stash(), err)
	}

	r.logger.Info().
		Str("contract", c.Contract.ID.String()).
		Stringer("kind", c.Kind).
		Int("transitions", added).
		Msg("consignment accepted")

	return Valid(), nil
}

// conflicts validates the history known by the stash merged with the one of
// the contract, and returns the failures. A seal closed by a stored transition
// and by a new one is reported as a double spend. The lock must be held.
func (r *Runtime) conflicts(c contract.Contract) ([]validation.Failure, error) {
	stored, err := r.stash.Get(c.ID)
	if xerrors.Is(err, stash.ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, newError(fault.NewDomain(fault.DomainStorage), fault.Stash(), err)
	}

	if stored.Merge(c.Transitions) == 0 {
		return nil, nil
	}

	status, err := r.engine.Validate(r.network, contract.NewContractConsignment(stored), r.resolver)
	if err != nil {
		return nil, newError(fault.NewDomain(fault.DomainSchema), fault.Contract(schemaName),
			xerrors.Errorf("couldn't validate merged history: %v", err))
	}

	return status.Failures, nil
}

// ListContracts returns the identifiers of the known contracts in ascending
// order.
func (r *Runtime) ListContracts() ([]contract.ContractID, error) {
	r.Lock()
	defer r.Unlock()

	ids, err := r.stash.List()
	if err != nil {
		return nil, newError(fault.NewDomain(fault.DomainStorage), fault.Stash(), err)
	}

	return ids, nil
}

// GetContract returns the parts of the contract selected by the query.
func (r *Runtime) GetContract(req rpc.ContractReq) (contract.Contract, error) {
	c, err := r.get(req.ContractID)
	if err != nil {
		return c, err
	}

	return req.Apply(c), nil
}

// GetContractState returns the unspent state of the contract.
func (r *Runtime) GetContractState(id contract.ContractID) (contract.ContractState, error) {
	c, err := r.get(id)
	if err != nil {
		return contract.ContractState{}, err
	}

	return c.State(), nil
}

// ConsignTransfer returns the transfer consignment of the history of the
// contract for the endpoints, which must be assigned by the history.
func (r *Runtime) ConsignTransfer(id contract.ContractID,
	endpoints []contract.OutPoint) (contract.Consignment, error) {

	if len(endpoints) == 0 {
		return contract.Consignment{}, apiError(fault.NewMissedArgument("consign_transfer", "endpoints"))
	}

	c, err := r.get(id)
	if err != nil {
		return contract.Consignment{}, err
	}

	assigned := c.Assignments()

	for _, endpoint := range endpoints {
		if _, found := assigned[endpoint]; !found {
			return contract.Consignment{}, newError(
				fault.APIDomain(fault.NewMalformedArgument("consign_transfer", "endpoints")),
				fault.Broker(),
				xerrors.Errorf("endpoint %v is not assigned by %v", endpoint, id))
		}
	}

	sorted := rpc.Spending(endpoints...).Outpoints

	return contract.NewTransferConsignment(c, sorted), nil
}

// Close releases the stash.
func (r *Runtime) Close() error {
	r.Lock()
	defer r.Unlock()

	err := r.stash.Close()
	if err != nil {
		return xerrors.Errorf("couldn't close stash: %v", err)
	}

	return nil
}

func (r *Runtime) get(id contract.ContractID) (contract.Contract, error) {
	r.Lock()
	defer r.Unlock()

	c, err := r.stash.Get(id)
	if xerrors.Is(err, stash.ErrNotFound) {
		return c, xerrors.Errorf("unknown contract %v: %w", id, stash.ErrNotFound)
	}

	if err != nil {
		return c, newError(fault.NewDomain(fault.DomainStorage), fault.Stash(), err)
	}

	return c, nil
}
