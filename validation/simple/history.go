package simple

import (
	"go.dedis.ch/rgbd/contract"
	"go.dedis.ch/rgbd/validation"
)

// history is the state accumulated while walking through the transitions of
// a contract.
type history struct {
	genesis  contract.Genesis
	assigned map[contract.OutPoint]uint64
	spent    map[contract.OutPoint]int
	resolved map[contract.Txid]struct{}
	issued   uint64
	status   validation.Status
}

func newHistory(genesis contract.Genesis) *history {
	h := &history{
		genesis:  genesis,
		assigned: make(map[contract.OutPoint]uint64),
		spent:    make(map[contract.OutPoint]int),
		resolved: make(map[contract.Txid]struct{}),
	}

	issued, err := contract.SumAssignments(genesis.Assignments)
	if err != nil {
		h.fail(validation.AmountMismatch, "genesis: %v", err)
	}

	h.issued = issued

	return h
}

func (h *history) fail(kind validation.FailureKind, format string, args ...interface{}) {
	h.status.Failures = append(h.status.Failures, validation.NewFailure(kind, format, args...))
}

func (h *history) warn(kind validation.WarningKind, format string, args ...interface{}) {
	h.status.Warnings = append(h.status.Warnings, validation.NewWarning(kind, format, args...))
}

func (h *history) assign(a contract.Assignment) {
	h.assigned[a.Seal] = a.Amount

	if a.Amount < h.genesis.DustLimit {
		h.warn(validation.DustOutput, "%v has %d < %d", a.Seal, a.Amount, h.genesis.DustLimit)
	}
}

func (h *history) apply(index int, t contract.Transition) {
	if !t.Type.Known() {
		h.fail(validation.UnknownTransition, "transition #%d has type %v", index, t.Type)
		return
	}

	control, hasControl := h.reissueControl()

	inputs := uint64(0)
	usesControl := false
	overflow := false

	for _, input := range t.Inputs {
		if t.Type == contract.TransitionReissue && hasControl && input == control {
			usesControl = true
		} else {
			amount, found := h.assigned[input]
			if !found {
				h.fail(validation.UnknownSeal, "transition #%d spends %v", index, input)
				continue
			}

			sum, err := contract.AddAmount(inputs, amount)
			if err != nil {
				overflow = true
			}

			inputs = sum
		}

		prev, spent := h.spent[input]
		if spent {
			h.fail(validation.DoubleSpend, "%v closed by #%d and #%d", input, prev, index)
			continue
		}

		h.spent[input] = index
	}

	outputs, err := contract.SumAssignments(t.Outputs)
	if err != nil {
		overflow = true
	}

	switch {
	case overflow:
		h.fail(validation.AmountMismatch, "transition #%d: %v", index, contract.ErrAmountOverflow)
	case t.Type == contract.TransitionTransfer, t.Type == contract.TransitionRename:
		if inputs != outputs {
			h.fail(validation.AmountMismatch, "transition #%d: %d != %d", index, inputs, outputs)
		}
	case t.Type == contract.TransitionBurn:
		if outputs > inputs {
			h.fail(validation.AmountMismatch, "transition #%d burns %d > %d", index, outputs, inputs)
		}
	case t.Type == contract.TransitionReissue:
		h.reissue(index, usesControl, inputs, outputs)
	}

	if len(t.Outputs) == 0 && t.Type != contract.TransitionBurn {
		h.warn(validation.EmptyTransition, "transition #%d", index)
	}

	for _, a := range t.Outputs {
		h.assign(a)
	}
}

func (h *history) reissueControl() (contract.OutPoint, bool) {
	structure := h.genesis.IssueStructure
	if structure.Kind != contract.MultipleIssues || structure.ReissueControl == nil ||
		structure.ReissueControl.Txid == nil {
		return contract.OutPoint{}, false
	}

	return structure.ReissueControl.OutPoint(contract.Txid{}), true
}

func (h *history) reissue(index int, usesControl bool, inputs, outputs uint64) {
	structure := h.genesis.IssueStructure

	if structure.Kind != contract.MultipleIssues {
		h.fail(validation.IssueViolation, "transition #%d reissues a single issue asset", index)
		return
	}

	if !usesControl {
		h.fail(validation.IssueViolation, "transition #%d does not close the reissue control", index)
		return
	}

	if outputs < inputs {
		h.fail(validation.AmountMismatch, "transition #%d: %d < %d", index, outputs, inputs)
		return
	}

	maxSupply, err := contract.CoinsToAmount(structure.MaxSupply, h.genesis.Precision)
	if err != nil {
		h.fail(validation.IssueViolation, "invalid max supply: %v", err)
		return
	}

	issued, err := contract.AddAmount(h.issued, outputs-inputs)
	if err != nil {
		h.fail(validation.IssueViolation, "transition #%d: %v", index, err)
		return
	}

	h.issued = issued
	if h.issued > maxSupply {
		h.fail(validation.IssueViolation, "issued %d exceeds the max supply %d", h.issued, maxSupply)
	}
}

func (h *history) resolve(txid contract.Txid, r validation.TxResolver) error {
	if _, found := h.resolved[txid]; found {
		return nil
	}

	h.resolved[txid] = struct{}{}

	mined, err := r.IsMined(txid)
	if err != nil {
		return validation.ResolverError{Txid: txid, Err: err}
	}

	if !mined {
		h.status.UnresolvedTxids = append(h.status.UnresolvedTxids, txid)
	}

	return nil
}
