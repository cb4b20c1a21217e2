package documents

import "errors"

var (
	ErrPermissionDenied = errors.New("role may not upload documents")
	ErrInvalidUpload    = errors.New("invalid upload")
)
