package domain

import "fmt"

// FetchError is returned when the helpdesk API answers with a non-success
// status or cannot be reached.
type FetchError struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s %s: %v", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s %s: unexpected status: %d", e.Kind, e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is returned when a response lacks the expected fields.
type MalformedResponseError struct {
	Kind   Kind
	URL    string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed %s response from %s: %s", e.Kind, e.URL, e.Reason)
}

// StorageError is returned when the watermark store is unavailable or corrupt.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// DeliveryError is returned when the digest could not be sent.
type DeliveryError struct {
	ChatID string
	Part   int
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver part %d to %s: %v", e.Part, e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
