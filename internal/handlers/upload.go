package handlers

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/wheelscan/go-wheel-trainer/internal/errors"
	"github.com/wheelscan/go-wheel-trainer/internal/logger"
	"github.com/wheelscan/go-wheel-trainer/internal/utils"
)

const (
	videoField    = "video"
	maxFieldBytes = 4 << 10
)

var (
	errNoVideo       = stderrors.New("no video file uploaded")
	errNotMultipart  = stderrors.New("request must be multipart/form-data")
	errDuplicateFile = stderrors.New("only one video file may be uploaded")
)

// Upload is a spooled training upload.
type Upload struct {
	VideoPath string
	Fields    map[string]string
}

// Cleanup removes the spooled video.
func (u *Upload) Cleanup(ctx context.Context) {
	if u.VideoPath == "" {
		return
	}
	if err := os.Remove(u.VideoPath); err != nil && !os.IsNotExist(err) {
		logger.WarnCtx(ctx, "Failed to remove uploaded video", "path", u.VideoPath, "error", err)
	}
}

// receiveUpload streams the multipart body, writing the video part to a temp
// file and keeping small text fields in memory. A partial upload is returned
// alongside any error so the caller can clean it up.
func (h *APIHandlers) receiveUpload(w http.ResponseWriter, r *http.Request) (*Upload, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get(utils.HeaderContentType))
	if err != nil || mediaType != utils.ContentTypeMultipartForm {
		return nil, errNotMultipart
	}
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNotMultipart, err)
	}

	upload := &Upload{Fields: make(map[string]string)}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return upload, err
		}

		switch {
		case part.FormName() == videoField && part.FileName() != "":
			if upload.VideoPath != "" {
				part.Close()
				return upload, errDuplicateFile
			}
			upload.VideoPath, err = h.spool(part, part.FileName())
		case part.FileName() == "":
			var value []byte
			value, err = io.ReadAll(io.LimitReader(part, maxFieldBytes))
			upload.Fields[part.FormName()] = string(value)
		}
		part.Close()
		if err != nil {
			return upload, err
		}
	}

	if upload.VideoPath == "" {
		return upload, errNoVideo
	}
	return upload, nil
}

func (h *APIHandlers) spool(src io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 8 {
		ext = ""
	}
	file, err := os.CreateTemp(h.WorkDir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(file, src); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	return file.Name(), nil
}

func (h *APIHandlers) writeUploadError(ctx context.Context, w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		errors.HandleError(w, errors.NewAPIError(errors.ErrorTypeTooLarge,
			fmt.Sprintf("Video exceeds the upload limit of %d bytes", tooLarge.Limit)), http.StatusRequestEntityTooLarge)
	case stderrors.Is(err, errNoVideo), stderrors.Is(err, errNotMultipart), stderrors.Is(err, errDuplicateFile):
		errors.HandleError(w, errors.NewValidationError(err.Error()), http.StatusBadRequest)
	default:
		logger.ErrorCtx(ctx, "Failed to receive upload", "error", err)
		errors.HandleError(w, errors.NewInternalError("Error uploading video"), http.StatusInternalServerError)
	}
}
