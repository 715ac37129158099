// Package fault defines the taxonomy of the errors of the node.
//
// The local tier is made of a service error composed of a domain and a
// source, the narrower API errors that fold into the API domain, and the leaf
// errors produced at startup (BootstrapError), by the transport sockets
// (RuntimeError) and by value parsing (ParseError). A RoutedError tells a
// dispatcher whether the whole service is broken or only the current request
// failed.
//
// Every error that leaves the process is reduced either to a service error,
// which has a structured representation, or to a bus failure defined in the
// rpc package.
package fault

import (
	"fmt"
)

// DomainKind is the category of subsystem where a service error happened.
type DomainKind uint8

const (
	// DomainIO is the input/output domain.
	DomainIO DomainKind = iota
	// DomainStorage is the domain of the persistent storage.
	DomainStorage
	// DomainIndex is the domain of the indexes.
	DomainIndex
	// DomainCache is the domain of the caches.
	DomainCache
	// DomainMultithreading is the domain of the concurrency primitives.
	DomainMultithreading
	// DomainP2PWire is the domain of the wire protocol.
	DomainP2PWire
	// DomainAPI is the domain of the API misuse. The API error is available
	// in the domain.
	DomainAPI
	// DomainMonitoring is the domain of the monitoring.
	DomainMonitoring
	// DomainBifrost is the domain of the Bifrost protocol.
	DomainBifrost
	// DomainBPNode is the domain of the Bitcoin protocol node.
	DomainBPNode
	// DomainLNPNode is the domain of the Lightning network node.
	DomainLNPNode
	// DomainBitcoin is the domain of the Bitcoin layer.
	DomainBitcoin
	// DomainLightning is the domain of the Lightning layer.
	DomainLightning
	// DomainSchema is the domain of the contract schemata.
	DomainSchema
	// DomainInternal is the domain of the internal failures.
	DomainInternal
)

var domainNames = [...]string{
	"Io",
	"Storage",
	"Index",
	"Cache",
	"Multithreading",
	"P2pwire",
	"Api",
	"Monitoring",
	"Bifrost",
	"BpNode",
	"LnpNode",
	"Bitcoin",
	"Lightning",
	"Schema",
	"Internal",
}

// String implements fmt.Stringer.
func (k DomainKind) String() string {
	if int(k) < len(domainNames) {
		return domainNames[k]
	}

	return fmt.Sprintf("Domain(%d)", uint8(k))
}

// Domain is the subsystem category of a service error. The API error is only
// set for the API domain.
type Domain struct {
	Kind DomainKind
	API  *APIError
}

// NewDomain returns the domain of the kind. The API domain must be created
// with APIDomain.
func NewDomain(kind DomainKind) Domain {
	return Domain{Kind: kind}
}

// APIDomain returns the API domain of the API error.
func APIDomain(err APIError) Domain {
	return Domain{Kind: DomainAPI, API: &err}
}

// Equal returns true if both domains are the same.
func (d Domain) Equal(other Domain) bool {
	if d.Kind != other.Kind {
		return false
	}

	if d.API == nil || other.API == nil {
		return d.API == other.API
	}

	return *d.API == *other.API
}

// String implements fmt.Stringer.
func (d Domain) String() string {
	if d.Kind == DomainAPI && d.API != nil {
		return fmt.Sprintf("Api(%v)", *d.API)
	}

	return d.Kind.String()
}

// SourceKind is the kind of service where an error originated.
type SourceKind uint8

const (
	// SourceBroker is the message broker of the node.
	SourceBroker SourceKind = iota
	// SourceStash is the persistent stash of contracts.
	SourceStash
	// SourceContract is a contract service identified by its name.
	SourceContract
)

// Source is the service where a service error originated.
type Source struct {
	Kind     SourceKind
	Contract string
}

// Broker returns the broker source.
func Broker() Source {
	return Source{Kind: SourceBroker}
}

// Stash returns the stash source.
func Stash() Source {
	return Source{Kind: SourceStash}
}

// Contract returns the source of the contract service with the given name.
func Contract(name string) Source {
	return Source{Kind: SourceContract, Contract: name}
}

// String implements fmt.Stringer.
func (s Source) String() string {
	switch s.Kind {
	case SourceBroker:
		return "Broker"
	case SourceStash:
		return "Stash"
	case SourceContract:
		return fmt.Sprintf("Contract(%q)", s.Contract)
	default:
		return fmt.Sprintf("Source(%d)", uint8(s.Kind))
	}
}

// ServiceError is the error of a service of the node.
//
// - implements error
type ServiceError struct {
	Domain Domain
	Source Source
}

// NewServiceError returns a service error.
func NewServiceError(domain Domain, source Source) ServiceError {
	return ServiceError{
		Domain: domain,
		Source: source,
	}
}

// ContractError returns a service error of the contract service with the
// given name.
func ContractError(domain Domain, name string) ServiceError {
	return NewServiceError(domain, Contract(name))
}

// FromAPI returns a service error of the API domain for the source.
func FromAPI(err APIError, source Source) ServiceError {
	return NewServiceError(APIDomain(err), source)
}

// Error implements error.
func (e ServiceError) Error() string {
	return fmt.Sprintf("ServiceError { domain: %v, service: %v }", e.Domain, e.Source)
}

// Is returns true when the target is a service error with the same domain and
// source.
func (e ServiceError) Is(target error) bool {
	other, ok := target.(ServiceError)

	return ok && e.Domain.Equal(other.Domain) && e.Source == other.Source
}
