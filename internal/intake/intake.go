package intake

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	DefaultMaxBytes       int64 = 10 * 1024 * 1024
	DefaultPreviewMaxEdge uint  = 512
	// 6000x6000 covers full resolution chest radiographs.
	DefaultPreviewMaxPixels int64 = 36_000_000
)

const (
	MediaTypePNG   = "image/png"
	MediaTypeJPEG  = "image/jpeg"
	MediaTypeDICOM = "application/dicom"
)

var allowedExtensions = map[string]string{
	".png":   MediaTypePNG,
	".jpg":   MediaTypeJPEG,
	".jpeg":  MediaTypeJPEG,
	".dcm":   MediaTypeDICOM,
	".dicom": MediaTypeDICOM,
}

const unsupportedTypeMessage = "Please upload a valid image file (PNG, JPG, JPEG, DICOM)"

// File is one candidate upload as received from a picker, a drop or a
// multipart form. Size is the declared size and is checked before Open is
// called.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func BytesFile(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

type Asset struct {
	Id         uuid.UUID
	Filename   string
	MediaType  string
	Size       int64
	Data       []byte
	UploadedAt time.Time

	// Preview is nil for media types that cannot be rendered as an image.
	Preview *Preview
}

func (a *Asset) IsImage() bool {
	return strings.HasPrefix(a.MediaType, "image/")
}

type Config struct {
	MaxBytes       int64
	PreviewMaxEdge uint
	// PreviewMaxPixels bounds the decoded size of an image a preview is
	// rendered from. Larger images get a failed preview.
	PreviewMaxPixels int64
	DisablePreview   bool
}

type Intake struct {
	maxBytes         int64
	previewMaxEdge   uint
	previewMaxPixels int64
	disablePreview   bool
}

func New(cfg Config) *Intake {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.PreviewMaxEdge == 0 {
		cfg.PreviewMaxEdge = DefaultPreviewMaxEdge
	}
	if cfg.PreviewMaxPixels <= 0 {
		cfg.PreviewMaxPixels = DefaultPreviewMaxPixels
	}
	return &Intake{
		maxBytes:         cfg.MaxBytes,
		previewMaxEdge:   cfg.PreviewMaxEdge,
		previewMaxPixels: cfg.PreviewMaxPixels,
		disablePreview:   cfg.DisablePreview,
	}
}

func (in *Intake) MaxBytes() int64 {
	return in.maxBytes
}

// Accept validates the files of a single interaction and returns the asset to
// hold. Rejections are *ValidationError. The preview of an image asset is
// derived in the background; Accept does not wait for it.
func (in *Intake) Accept(files []File) (*Asset, error) {
	switch {
	case len(files) == 0:
		return nil, reject(ErrNoFile, "Please select a file to upload")
	case len(files) > 1:
		return nil, reject(ErrMultipleFiles, "Please upload a single file")
	}

	file := files[0]
	if file.Size > in.maxBytes {
		return nil, in.tooLarge()
	}

	ext := strings.ToLower(filepath.Ext(file.Name))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, reject(ErrUnsupportedType, unsupportedTypeMessage)
	}

	data, err := in.read(file)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > in.maxBytes {
		return nil, in.tooLarge()
	}
	if len(data) == 0 {
		return nil, reject(ErrEmptyFile, "The selected file is empty")
	}

	detected := mimetype.Detect(data)
	mediaType := allowedMediaType(detected)
	if mediaType == "" {
		slog.Info("rejected upload with unsupported content", "filename", file.Name, "detected_type", detected.String(), "declared_type", file.ContentType)
		return nil, reject(ErrUnsupportedType, unsupportedTypeMessage)
	}
	if expected := allowedExtensions[ext]; expected != mediaType {
		slog.Warn("upload extension does not match content", "filename", file.Name, "extension_type", expected, "detected_type", mediaType)
	}

	asset := &Asset{
		Id:         uuid.New(),
		Filename:   filepath.Base(file.Name),
		MediaType:  mediaType,
		Size:       int64(len(data)),
		Data:       data,
		UploadedAt: time.Now().UTC(),
	}
	if asset.IsImage() && !in.disablePreview {
		asset.Preview = derivePreview(data, in.previewMaxEdge, in.previewMaxPixels)
	}

	return asset, nil
}

func (in *Intake) read(file File) ([]byte, error) {
	if file.Open == nil {
		return nil, fmt.Errorf("file %s has no content", file.Name)
	}
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening upload %s: %w", file.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, in.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading upload %s: %w", file.Name, err)
	}
	return data, nil
}

func (in *Intake) tooLarge() *ValidationError {
	return reject(ErrFileTooLarge, "File size must be less than %s", FormatSize(in.maxBytes))
}

func allowedMediaType(detected *mimetype.MIME) string {
	for _, mediaType := range []string{MediaTypePNG, MediaTypeJPEG, MediaTypeDICOM} {
		if detected.Is(mediaType) {
			return mediaType
		}
	}
	return ""
}

// FormatSize renders a byte count the way the upload widget shows it, e.g.
// "2.5 MB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	value, i := float64(bytes), 0
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + units[i]
}
