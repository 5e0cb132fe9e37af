package minio

import (
	"context"
	"errors"
	"net/http"

	minioErr "github.com/minio/minio-go/v7"

	"github.com/schemalens/schemalens/internal/errs"
)

// mapError translates a MinIO SDK error into a *errs.Error. It mirrors the
// mapError pattern used in the database drivers.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	// MinIO SDK exposes a typed ErrorResponse for S3-protocol errors
	var resp minioErr.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case http.StatusForbidden, http.StatusUnauthorized:
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		case http.StatusBadRequest:
			return errs.Wrap(errs.ErrKindInvalidInput, msg, err)
		}

		switch resp.Code {
		case "NoSuchBucket", "NoSuchKey":
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		case "InvalidBucketName", "InvalidObjectName", "KeyTooLongError":
			return errs.Wrap(errs.ErrKindInvalidInput, msg, err)
		case "RequestTimeout", "SlowDown":
			return errs.Wrap(errs.ErrKindTimeout, msg, err)
		}
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
