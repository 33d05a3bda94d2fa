package jsonrpc

import "encoding/json"

// NewRequest builds a Request with the given id and method, marshaling
// params into the raw params field. A nil id produces a notification.
func NewRequest(id any, method string, params any) (Request, error) {
	req := Request{JSONRPC: Version, Method: method}

	if id != nil {
		raw, err := json.Marshal(id)
		if err != nil {
			return Request{}, err
		}
		req.ID = raw
	}

	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return Request{}, err
		}
		req.Params = raw
	}

	return req, nil
}
