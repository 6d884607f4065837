package intake_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"medai-backend/internal/intake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func dicomBytes() []byte {
	data := make([]byte, 256)
	copy(data[128:], "DICM")
	return data
}

func TestAcceptImages(t *testing.T) {
	in := intake.New(intake.Config{})

	t.Run("png", func(t *testing.T) {
		asset, err := in.Accept([]intake.File{intake.BytesFile("chest.png", "image/png", pngBytes(t, 16, 16))})
		require.NoError(t, err)
		assert.Equal(t, "chest.png", asset.Filename)
		assert.Equal(t, intake.MediaTypePNG, asset.MediaType)
		assert.True(t, asset.IsImage())
		require.NotNil(t, asset.Preview)
	})

	t.Run("jpeg", func(t *testing.T) {
		asset, err := in.Accept([]intake.File{intake.BytesFile("scan.JPEG", "image/jpeg", jpegBytes(t))})
		require.NoError(t, err)
		assert.Equal(t, intake.MediaTypeJPEG, asset.MediaType)
		require.NotNil(t, asset.Preview)
	})

	t.Run("dicom", func(t *testing.T) {
		asset, err := in.Accept([]intake.File{intake.BytesFile("study.dcm", "application/dicom", dicomBytes())})
		require.NoError(t, err)
		assert.Equal(t, intake.MediaTypeDICOM, asset.MediaType)
		assert.False(t, asset.IsImage())
		assert.Nil(t, asset.Preview)
	})
}

func TestRejections(t *testing.T) {
	in := intake.New(intake.Config{})

	tests := []struct {
		name    string
		files   []intake.File
		reason  error
		message string
	}{
		{
			name:    "oversize",
			files:   []intake.File{intake.BytesFile("big.png", "image/png", make([]byte, 12*1024*1024))},
			reason:  intake.ErrFileTooLarge,
			message: "File size must be less than 10 MB",
		},
		{
			name:    "text file",
			files:   []intake.File{intake.BytesFile("notes.txt", "text/plain", []byte("hello"))},
			reason:  intake.ErrUnsupportedType,
			message: "Please upload a valid image file (PNG, JPG, JPEG, DICOM)",
		},
		{
			name:    "text content behind image extension",
			files:   []intake.File{intake.BytesFile("fake.png", "image/png", []byte("definitely not an image"))},
			reason:  intake.ErrUnsupportedType,
			message: "Please upload a valid image file (PNG, JPG, JPEG, DICOM)",
		},
		{
			name:   "no files",
			files:  nil,
			reason: intake.ErrNoFile,
		},
		{
			name: "multiple files",
			files: []intake.File{
				intake.BytesFile("a.png", "image/png", pngBytes(t, 4, 4)),
				intake.BytesFile("b.png", "image/png", pngBytes(t, 4, 4)),
			},
			reason: intake.ErrMultipleFiles,
		},
		{
			name:   "empty",
			files:  []intake.File{intake.BytesFile("empty.png", "image/png", nil)},
			reason: intake.ErrEmptyFile,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			asset, err := in.Accept(tc.files)
			assert.Nil(t, asset)
			assert.ErrorIs(t, err, tc.reason)

			var verr *intake.ValidationError
			require.ErrorAs(t, err, &verr)
			if tc.message != "" {
				assert.Equal(t, tc.message, verr.Message)
			}
		})
	}
}

func TestUnderstatedSizeIsCaughtWhileReading(t *testing.T) {
	in := intake.New(intake.Config{MaxBytes: 1024})

	data := append(pngBytes(t, 8, 8), make([]byte, 2048)...)
	file := intake.File{
		Name: "liar.png",
		Size: 10,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}

	_, err := in.Accept([]intake.File{file})
	assert.ErrorIs(t, err, intake.ErrFileTooLarge)
}

func TestPreviewIsDownscaledDataURI(t *testing.T) {
	in := intake.New(intake.Config{PreviewMaxEdge: 8})

	asset, err := in.Accept([]intake.File{intake.BytesFile("large.png", "image/png", pngBytes(t, 64, 32))})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	uri, err := asset.Preview.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	_, ready, err := asset.Preview.Ready()
	assert.True(t, ready)
	assert.NoError(t, err)
}

// withDimensions rewrites the IHDR chunk of an encoded PNG so its header
// claims a different size than the pixel data it carries.
func withDimensions(data []byte, w, h uint32) []byte {
	out := append([]byte(nil), data...)
	// signature(8) length(4) "IHDR"(4) width(4) height(4) ... crc
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestPreviewRejectsOversizedImages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("configured limit", func(t *testing.T) {
		in := intake.New(intake.Config{PreviewMaxPixels: 100})

		asset, err := in.Accept([]intake.File{intake.BytesFile("chest.png", "image/png", pngBytes(t, 16, 16))})
		require.NoError(t, err)
		require.NotNil(t, asset.Preview)

		_, err = asset.Preview.Wait(ctx)
		assert.ErrorIs(t, err, intake.ErrPreviewTooLarge)
	})

	t.Run("default limit", func(t *testing.T) {
		in := intake.New(intake.Config{})

		data := withDimensions(pngBytes(t, 4, 4), 20000, 20000)
		asset, err := in.Accept([]intake.File{intake.BytesFile("huge.png", "image/png", data)})
		require.NoError(t, err)
		require.NotNil(t, asset.Preview)

		_, err = asset.Preview.Wait(ctx)
		assert.ErrorIs(t, err, intake.ErrPreviewTooLarge)
	})
}

func TestDisablePreview(t *testing.T) {
	in := intake.New(intake.Config{DisablePreview: true})

	asset, err := in.Accept([]intake.File{intake.BytesFile("chest.png", "image/png", pngBytes(t, 16, 16))})
	require.NoError(t, err)
	assert.True(t, asset.IsImage())
	assert.Nil(t, asset.Preview)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 Bytes", intake.FormatSize(0))
	assert.Equal(t, "512 Bytes", intake.FormatSize(512))
	assert.Equal(t, "1 KB", intake.FormatSize(1024))
	assert.Equal(t, "2.5 MB", intake.FormatSize(5*1024*1024/2))
	assert.Equal(t, "10 MB", intake.FormatSize(intake.DefaultMaxBytes))
}
