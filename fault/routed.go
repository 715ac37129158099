package fault

// RoutedError is the choice of a dispatcher between a failure of the whole
// service and a failure of a single request. Exactly one of the fields is
// set.
//
// - implements error
type RoutedError struct {
	global  *RuntimeError
	request *ServiceError
}

// Global returns a routed error that degrades the whole service.
func Global(err RuntimeError) RoutedError {
	return RoutedError{global: &err}
}

// RequestSpecific returns a routed error only reported to the requester.
func RequestSpecific(err ServiceError) RoutedError {
	return RoutedError{request: &err}
}

// IsGlobal returns true if the error degrades the whole service.
func (e RoutedError) IsGlobal() bool {
	return e.global != nil
}

// Runtime returns the runtime error of a global error.
func (e RoutedError) Runtime() (RuntimeError, bool) {
	if e.global == nil {
		return RuntimeError{}, false
	}

	return *e.global, true
}

// Service returns the service error of a request-specific error.
func (e RoutedError) Service() (ServiceError, bool) {
	if e.request == nil {
		return ServiceError{}, false
	}

	return *e.request, true
}

// Error implements error.
func (e RoutedError) Error() string {
	if e.global != nil {
		return "Global(" + e.global.Error() + ")"
	}

	if e.request != nil {
		return "RequestSpecific(" + e.request.Error() + ")"
	}

	return "RoutedError"
}

// Unwrap returns the underlying error.
func (e RoutedError) Unwrap() error {
	if e.global != nil {
		return *e.global
	}

	if e.request != nil {
		return *e.request
	}

	return nil
}
