package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	azStorageBlob "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/datatrails/go-datatrails-common/azblob"
)

const (
	azblobBlobNotFound = "BlobNotFound"
)

var ErrBlobNotFound = errors.New("source: blob not found")

// BlobReader is the part of azblob.Reader needed to fetch a stream.
type BlobReader interface {
	Reader(
		ctx context.Context,
		identity string,
		opts ...azblob.Option,
	) (*azblob.ReaderResponse, error)
}

// Blob reads the stream stored at path. The whole blob is read before
// returning; the response body is closed in all cases.
func Blob(ctx context.Context, store BlobReader, path string, opts ...azblob.Option) (*bytes.Reader, error) {
	rr, err := store.Reader(ctx, path, opts...)
	if err != nil {
		return nil, WrapBlobNotFound(err)
	}
	if rr == nil || rr.Reader == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrBlobNotFound)
	}
	defer rr.Reader.Close()

	data, err := io.ReadAll(rr.Reader)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func AsStorageError(err error) (azStorageBlob.StorageError, bool) {
	serr := &azStorageBlob.StorageError{}
	//nolint
	ierr, ok := err.(*azStorageBlob.InternalError)
	if ierr == nil || !ok {
		return azStorageBlob.StorageError{}, false
	}
	if !ierr.As(&serr) {
		return azStorageBlob.StorageError{}, false
	}
	return *serr, true
}

// WrapBlobNotFound translates err to ErrBlobNotFound if it is the azure sdk
// blob not found error. Any other err, including nil, is returned as is.
func WrapBlobNotFound(err error) error {
	if err == nil {
		return nil
	}
	serr, ok := AsStorageError(err)
	if !ok {
		return err
	}
	if serr.ErrorCode != azblobBlobNotFound {
		return err
	}
	return fmt.Errorf("%s: %w", err.Error(), ErrBlobNotFound)
}

func IsBlobNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBlobNotFound) {
		return true
	}
	serr, ok := AsStorageError(err)
	if !ok {
		return false
	}
	return serr.ErrorCode == azblobBlobNotFound
}
