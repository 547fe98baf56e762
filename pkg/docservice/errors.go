package docservice

import "fmt"

const (
	uploadFallback = "Failed to upload document"
	queryFallback  = "Failed to query document"
)

// UploadError is returned when the upload exchange fails, either with a
// non-success status or a transport fault
type UploadError struct {
	Message    string
	StatusCode int // zero for transport faults
	Err        error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("Upload failed: %s", e.Message)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// QueryError is returned when the query exchange fails
type QueryError struct {
	Message    string
	StatusCode int // zero for transport faults
	Err        error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("Query failed: %s", e.Message)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
