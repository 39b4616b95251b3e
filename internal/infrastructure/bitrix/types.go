package bitrix

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// CallError is an error reported by the remote CRM for a single method call
type CallError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// Error implements the error interface
func (e *CallError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return e.Code
}

// CallResult is the payload of one successful method call
type CallResult struct {
	Result json.RawMessage `json:"result"`
	Total  int             `json:"total"`
	Next   *int            `json:"next"`
}

// apiResponse is the raw envelope every REST method answers with
type apiResponse struct {
	Result           json.RawMessage `json:"result"`
	Total            int             `json:"total"`
	Next             *int            `json:"next"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// Command is one entry of a batched multi-call. Key correlates the
// command with its slot in the batch response.
type Command struct {
	Key    string
	Method string
	Params url.Values
}

// encode renders the command in the query form the batch method expects
func (c Command) encode() string {
	if len(c.Params) == 0 {
		return c.Method
	}
	return c.Method + "?" + c.Params.Encode()
}

// CommandKey builds the correlation key for a command derived from its
// input position
func CommandKey(index int) string {
	return fmt.Sprintf("cmd_%d", index)
}

// BatchResult holds the per-command outcomes of a batched multi-call,
// keyed by the correlation keys of the submitted commands
type BatchResult struct {
	Results map[string]json.RawMessage
	Errors  map[string]*CallError
	Totals  map[string]int
}

// ResultFor returns the payload for one command key, or its error
func (r *BatchResult) ResultFor(key string) (json.RawMessage, error) {
	if callErr, ok := r.Errors[key]; ok && callErr != nil {
		return nil, callErr
	}
	raw, ok := r.Results[key]
	if !ok {
		return nil, fmt.Errorf("no batch result for key %s", key)
	}
	return raw, nil
}

// batchPayload is the nested result object of the batch method
type batchPayload struct {
	Result      map[string]json.RawMessage `json:"result"`
	ResultError map[string]*CallError      `json:"result_error"`
	ResultTotal map[string]int             `json:"result_total"`
}
