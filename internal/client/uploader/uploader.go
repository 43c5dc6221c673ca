// Package uploader is the upload client: it holds the selected file, sends it
// to uploads/<name> in a single request and reports the outcome as a status
// line.
package uploader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"nullid/internal/contenttype"
	"nullid/internal/domain"

	"github.com/wb-go/wbf/zlog"
)

var (
	ErrNoFileSelected   = errors.New("no file selected")
	ErrUploadInProgress = errors.New("upload already in progress")
	ErrUploadFailed     = errors.New("upload failed")
)

const sniffLen = 512

// Transport writes one object. Implementations must not retry.
type Transport interface {
	Put(ctx context.Context, key, contentType string, size int64, body io.Reader) error
}

// File is a user-selected file. Open is called once per upload attempt.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func FromBytes(name, contentType string, data []byte) *File {
	return &File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func FromPath(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &File{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

type Uploader struct {
	transport Transport
	logger    *zlog.Zerolog

	mu        sync.Mutex
	selected  *File
	uploading bool
	status    string
}

func New(transport Transport, logger *zlog.Zerolog) *Uploader {
	return &Uploader{
		transport: transport,
		logger:    logger,
	}
}

// Select replaces the selected file and clears the status line.
func (u *Uploader) Select(f *File) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.selected = f
	u.status = ""
}

func (u *Uploader) Selected() *File {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.selected
}

func (u *Uploader) Status() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status
}

func (u *Uploader) Uploading() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uploading
}

// CanUpload reports whether the upload action is enabled.
func (u *Uploader) CanUpload() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return !u.uploading && u.selected != nil
}

// Upload sends the selected file. On success the selection is cleared; on
// failure it is kept so the user can try again.
func (u *Uploader) Upload(ctx context.Context) error {
	u.mu.Lock()
	if u.uploading {
		u.mu.Unlock()
		return ErrUploadInProgress
	}
	if u.selected == nil {
		u.status = domain.MsgNoFileSelected
		u.mu.Unlock()
		return ErrNoFileSelected
	}
	file := u.selected
	u.uploading = true
	u.status = ""
	u.mu.Unlock()

	err := u.send(ctx, file)

	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploading = false
	if err != nil {
		u.logger.Error().Err(err).Str("file", file.Name).Msg("Error uploading file")
		u.status = domain.MsgUploadFailed
		return fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	u.status = domain.UploadedMessage(file.Name)
	if u.selected == file {
		u.selected = nil
	}
	return nil
}

func (u *Uploader) send(ctx context.Context, file *File) error {
	key, err := domain.UploadKey(file.Name)
	if err != nil {
		return err
	}

	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer rc.Close()

	body := bufio.NewReaderSize(rc, sniffLen)
	head, _ := body.Peek(sniffLen)
	contentType := contenttype.Detect(file.Name, file.ContentType, head)

	return u.transport.Put(ctx, key, contentType, file.Size, body)
}
