package upload

import "errors"

var (
	ErrUploadNotFound  = errors.New("upload not found")
	ErrNotOwner        = errors.New("upload belongs to another user")
	ErrFileTooLarge    = errors.New("file is larger than the upload limit")
	ErrInvalidMimeType = errors.New("file content type is not accepted for this kind of upload")
	ErrEmptyFile       = errors.New("uploaded file has no content")
	ErrNoFile          = errors.New("multipart field \"file\" is missing")
)
