package fault

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/xerrors"
)

// Representation is the structured representation of a service error that
// can be serialized and sent to a remote party.
//
// - implements error
type Representation struct {
	Domain      string            `json:"domain"`
	Service     string            `json:"service"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Info        map[string]string `json:"info,omitempty"`
}

// Represent returns the structured representation of the service error.
func (e ServiceError) Represent() Representation {
	repr := Representation{
		Domain:      e.Domain.Kind.String(),
		Service:     e.Source.String(),
		Name:        e.Domain.Kind.String(),
		Description: e.Error(),
		Info:        map[string]string{},
	}

	if e.Source.Kind == SourceContract {
		repr.Info["contract"] = e.Source.Contract
	}

	if e.Domain.API != nil {
		api := *e.Domain.API

		repr.Name = api.Name()
		repr.Description = api.Error()

		if api.Request != "" {
			repr.Info["request"] = api.Request
		}
		if api.Command != "" {
			repr.Info["command"] = api.Command
		}
		if api.Argument != "" {
			repr.Info["argument"] = api.Argument
		}
	}

	if len(repr.Info) == 0 {
		repr.Info = nil
	}

	return repr
}

// Error implements error.
func (r Representation) Error() string {
	keys := make([]string, 0, len(r.Info))
	for key := range r.Info {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	info := make([]string, len(keys))
	for i, key := range keys {
		info[i] = fmt.Sprintf("%s=%s", key, r.Info[key])
	}

	return fmt.Sprintf("%s error in %s: %s [%s]", r.Domain, r.Service, r.Name,
		strings.Join(info, ", "))
}

// MarshalRepresentation returns the JSON encoding of the representation.
func MarshalRepresentation(r Representation) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal representation: %v", err)
	}

	return data, nil
}

// UnmarshalRepresentation populates a representation from its JSON encoding.
func UnmarshalRepresentation(data []byte) (Representation, error) {
	var r Representation

	err := json.Unmarshal(data, &r)
	if err != nil {
		return r, xerrors.Errorf("couldn't unmarshal representation: %v", err)
	}

	return r, nil
}

// InteroperableError is a text-only error used to communicate across the
// foreign function boundary.
//
// - implements error
type InteroperableError string

// Interop returns the interoperable error of any error.
func Interop(err error) InteroperableError {
	return InteroperableError(err.Error())
}

// Error implements error.
func (e InteroperableError) Error() string {
	return string(e)
}
