package api

// HTTPError is returned by handlers to pick the status and the client-facing
// message. ErrorLog is logged and never sent.
type HTTPError struct {
	StatusCode int
	Message    string
	ErrorLog   error
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.ErrorLog
}

type ApiError struct {
	Error string `json:"error"`
}
