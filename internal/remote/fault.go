package remote

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const remoteFaultCode = "REMOTE_FAULT"

// Fault is a structured error returned by the artifact service.
type Fault struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Status  int    `json:"-"`
}

// Reason returns the most specific human readable explanation: the detail
// payload, then the message, then the code.
func (f *Fault) Reason() string {
	if f == nil {
		return ""
	}
	for _, candidate := range []string{f.Detail, f.Message, f.Code} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return "unspecified remote fault"
}

func (f *Fault) Error() string {
	return "remote fault: " + f.Reason()
}

func (f *Fault) notFound() bool {
	return strings.EqualFold(f.Code, "NOT_FOUND") || strings.EqualFold(f.Code, "ArtifactNotFound")
}

func wrapFault(fault *Fault) error {
	return goerrors.Wrap(fault, goerrors.CategoryCommand, fault.Reason()).
		WithTextCode(remoteFaultCode)
}

// Reason extracts the most specific reason from err, unwrapping remote
// faults when present.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var fault *Fault
	if errors.As(err, &fault) {
		return fault.Reason()
	}
	return err.Error()
}
