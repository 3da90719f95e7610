// Package das queries the dataset bookkeeping service (DAS) for dataset
// metadata.
package das

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNoParent is returned when a dataset has no parent.
var ErrNoParent = errors.New("no parent dataset found")

// ErrAmbiguousParent is returned when a query matches more than one record,
// or a record lists more than one parent.
var ErrAmbiguousParent = errors.New("more than one parent dataset found")

// Parent is a parent dataset reference.
type Parent struct {
	Name string `json:"name"`
}

// Record is one entry of a query result.
type Record struct {
	Parent []Parent `json:"parent"`
}

// Response is the result of a DAS query.
type Response struct {
	Status   string   `json:"status"`
	Reason   string   `json:"reason,omitempty"`
	NResults int      `json:"nresults"`
	Data     []Record `json:"data"`
}

// Client runs DAS queries such as "parent dataset=/A/B/NANOAODSIM".
type Client interface {
	Query(ctx context.Context, query string) (*Response, error)
}

// StatusError is returned when the DAS server answers with an HTTP error.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("das server returned %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

// ParentQuery returns the DAS query listing the parents of a dataset.
func ParentQuery(dataset string) string {
	return "parent dataset=" + dataset
}

// ParentFromResponse extracts the single parent of "dataset" from a
// response. Anything but exactly one record with exactly one parent is an
// error.
func ParentFromResponse(dataset string, resp *Response) (string, error) {
	if resp == nil || len(resp.Data) == 0 {
		return "", fmt.Errorf("%s: %w", dataset, ErrNoParent)
	}
	if len(resp.Data) > 1 {
		return "", fmt.Errorf("%s: %d records: %w", dataset, len(resp.Data), ErrAmbiguousParent)
	}
	parents := resp.Data[0].Parent
	switch len(parents) {
	case 0:
		return "", fmt.Errorf("%s: %w", dataset, ErrNoParent)
	case 1:
		if parents[0].Name == "" {
			return "", fmt.Errorf("%s: empty parent name: %w", dataset, ErrNoParent)
		}
		return parents[0].Name, nil
	default:
		return "", fmt.Errorf("%s: %d parents: %w", dataset, len(parents), ErrAmbiguousParent)
	}
}

// Retryable reports whether a failed lookup may succeed when tried again.
// Lookups answered with a wrong number of parents, client errors and
// canceled contexts are not retryable.
func Retryable(err error) bool {
	if errors.Is(err, ErrNoParent) || errors.Is(err, ErrAmbiguousParent) {
		return false
	}
	if errors.Is(err, ErrClientConfig) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var serr *StatusError
	if errors.As(err, &serr) {
		return serr.Code >= 500 || serr.Code == http.StatusTooManyRequests
	}
	return true
}
