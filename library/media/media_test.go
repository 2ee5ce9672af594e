package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}

	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

// pngHeader only the signature and IHDR chunk, enough for image.DecodeConfig
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	buf := new(bytes.Buffer)
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestProcessor_Prepare(t *testing.T) {
	t.Parallel()

	t.Run("small image is kept", func(t *testing.T) {
		data := pngBytes(t, 20, 10)
		got, err := NewProcessor(1<<20, 100).Prepare(data)
		require.NoError(t, err)
		require.Equal(t, "image/png", got.ContentType)
		require.Equal(t, 20, got.Width)
		require.Equal(t, data, got.Data)
	})

	t.Run("wide image is resized", func(t *testing.T) {
		got, err := NewProcessor(1<<20, 50).Prepare(pngBytes(t, 200, 100))
		require.NoError(t, err)
		require.Equal(t, "image/png", got.ContentType)
		require.Equal(t, 50, got.Width)
		require.Equal(t, 25, got.Height)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := NewProcessor(10, 0).Prepare(pngBytes(t, 20, 20))
		require.True(t, errors.Is(err, ErrImageTooLarge))
	})

	t.Run("too many pixels", func(t *testing.T) {
		data := pngHeader(2000, 40000)
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		require.Equal(t, "png", format)
		require.Equal(t, 40000, cfg.Height)

		_, err = NewProcessor(5<<20, 1600).Prepare(data)
		require.True(t, errors.Is(err, ErrImageTooLarge), err)

		// bounded even when resizing is disabled
		_, err = NewProcessor(5<<20, 0).Prepare(data)
		require.True(t, errors.Is(err, ErrImageTooLarge), err)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := NewProcessor(0, 0).Prepare([]byte("hello world"))
		require.True(t, errors.Is(err, ErrUnsupportedImage))

		_, err = NewProcessor(0, 0).Prepare(nil)
		require.True(t, errors.Is(err, ErrUnsupportedImage))
	})
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewMemoryStore("http://media.local")

	a, err := s.Put(ctx, "blogs", "cover.PNG", "image/png", []byte("x"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(a.PublicID, "blogs/"))
	require.True(t, strings.HasSuffix(a.PublicID, ".png"))
	require.Equal(t, "http://media.local/"+a.PublicID, a.URL)
	require.True(t, s.Has(a.PublicID))

	b, err := s.Put(ctx, "blogs", "cover.PNG", "image/png", []byte("y"))
	require.NoError(t, err)
	require.NotEqual(t, a.PublicID, b.PublicID)
	require.Equal(t, 2, s.Len())

	require.NoError(t, s.Remove(ctx, a.PublicID))
	require.NoError(t, s.Remove(ctx, a.PublicID))
	require.False(t, s.Has(a.PublicID))
	require.Equal(t, 1, s.Len())
}

func TestObjectKey(t *testing.T) {
	t.Parallel()
	k := objectKey("/blog", "avatars", "me.jpeg", "")
	require.True(t, strings.HasPrefix(k, "blog/avatars/"), k)
	require.True(t, strings.HasSuffix(k, ".jpeg"), k)

	k = objectKey("", "avatars", "me", "image/webp")
	require.True(t, strings.HasSuffix(k, ".webp"), k)
}

func TestNewMinioStore(t *testing.T) {
	t.Parallel()
	_, err := NewMinioStore(MinioConfig{})
	require.Error(t, err)

	s, err := NewMinioStore(MinioConfig{Endpoint: "s3.local:9000", Bucket: "blog", Secure: true})
	require.NoError(t, err)
	require.Equal(t, "https://s3.local:9000/blog", s.cfg.PublicURL)

	s, err = NewMinioStore(MinioConfig{Endpoint: "s3.local", Bucket: "blog", PublicURL: "https://cdn.local/"})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.local", s.cfg.PublicURL)
}
