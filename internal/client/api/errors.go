package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/antonkuzmin/adminctl/internal/common"
	"github.com/go-resty/resty/v2"
)

// Error is a failed remote call. Matches common.ErrUnauthorized via
// errors.Is when the backend rejected the credential.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s (HTTP %d)", e.Message, e.StatusCode)
}

func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return common.ErrUnauthorized
	}
	if e.StatusCode == http.StatusNotFound {
		return common.ErrNotFound
	}
	return nil
}

// errorBody covers the shapes the backends respond with on failure.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// toError maps a non-2xx response into an *Error, decoding the body when
// it carries one of the known error shapes.
func toError(resp *resty.Response) *Error {
	msg := http.StatusText(resp.StatusCode())

	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		switch {
		case body.Detail != "":
			msg = body.Detail
		case body.Message != "":
			msg = body.Message
		}
	}

	return &Error{StatusCode: resp.StatusCode(), Message: msg}
}
