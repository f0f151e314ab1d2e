package b2

import "fmt"

// AuthError reports a failed account authorization. Status and Body are set
// when the backend answered with a non-success status; Err when the request
// never completed.
type AuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authorize account: %v", e.Err)
	}
	return fmt.Sprintf("authorize account: backend returned %d: %s", e.Status, e.Body)
}

func (e *AuthError) Unwrap() error { return e.Err }

// GrantError reports a failed upload URL request.
type GrantError struct {
	Status int
	Body   string
	Err    error
}

func (e *GrantError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request upload grant: %v", e.Err)
	}
	return fmt.Sprintf("request upload grant: backend returned %d: %s", e.Status, e.Body)
}

func (e *GrantError) Unwrap() error { return e.Err }

// UploadError reports a failed content upload for a single key.
type UploadError struct {
	Key    string
	Status int
	Body   string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("upload %s: backend returned %d: %s", e.Key, e.Status, e.Body)
}

func (e *UploadError) Unwrap() error { return e.Err }
