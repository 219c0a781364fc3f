package photos

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"
)

// texturedImage — градиент с шумом, чтобы размер JPEG заметно зависел от качества
func texturedImage(w, h int) *image.RGBA {
	rng := rand.New(rand.NewSource(7))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := uint8(rng.Intn(48))
			img.Set(x, y, color.RGBA{
				R: uint8(x*255/w) ^ n,
				G: uint8(y*255/h) ^ n,
				B: uint8((x+y)*255/(w+h)) ^ n,
				A: 255,
			})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image, q int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestCompress_BinarySearchHitsTarget(t *testing.T) {
	img := texturedImage(400, 300)
	raw := encodePNG(t, img)

	high := len(encodeJPEG(t, img, 92))
	low := len(encodeJPEG(t, img, 30))
	if low >= high {
		t.Fatalf("test image does not compress with quality: low=%d high=%d", low, high)
	}
	target := (low + high) / 2

	enc, err := Compress(raw, Options{TargetBytes: target, MaxDimension: 1000, MinQuality: 30, MaxQuality: 92})
	if err != nil {
		t.Fatalf("Compress error: %v", err)
	}
	if !enc.TargetReached {
		t.Fatalf("expected target to be reached")
	}
	if len(enc.Data) > target {
		t.Errorf("size %d exceeds target %d", len(enc.Data), target)
	}
	if enc.ContentType != "image/jpeg" {
		t.Errorf("expected jpeg, got %s", enc.ContentType)
	}
	if enc.Width != 400 || enc.Height != 300 {
		t.Errorf("expected dimensions to be kept, got %dx%d", enc.Width, enc.Height)
	}
	if enc.Quality <= 30 || enc.Quality >= 92 {
		t.Errorf("expected an intermediate quality, got %d", enc.Quality)
	}
}

func TestCompress_ResizesToMaxDimension(t *testing.T) {
	raw := encodeJPEG(t, texturedImage(800, 400), 90)

	enc, err := Compress(raw, Options{TargetBytes: 10 << 20, MaxDimension: 200})
	if err != nil {
		t.Fatalf("Compress error: %v", err)
	}
	if enc.Width != 200 || enc.Height != 100 {
		t.Errorf("expected 200x100, got %dx%d", enc.Width, enc.Height)
	}
	if _, _, err := image.Decode(bytes.NewReader(enc.Data)); err != nil {
		t.Errorf("result is not a decodable image: %v", err)
	}
}

func TestCompress_SmallJPEGPassesThrough(t *testing.T) {
	raw := encodeJPEG(t, texturedImage(64, 64), 80)

	enc, err := Compress(raw, Options{TargetBytes: 1 << 20, MaxDimension: 1600})
	if err != nil {
		t.Fatalf("Compress error: %v", err)
	}
	if !bytes.Equal(enc.Data, raw) {
		t.Errorf("expected original bytes to be kept")
	}
}

func TestCompress_TransparentPNGStaysPNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 16; y < 48; y++ {
		for x := 16; x < 48; x++ {
			img.Set(x, y, color.NRGBA{R: 200, A: 255})
		}
	}

	enc, err := Compress(encodePNG(t, img), Options{TargetBytes: 1 << 20})
	if err != nil {
		t.Fatalf("Compress error: %v", err)
	}
	if enc.ContentType != "image/png" {
		t.Fatalf("expected png fallback for transparent image, got %s", enc.ContentType)
	}
}

func TestCompress_TransparentFallsBackToJPEGWhenPNGTooBig(t *testing.T) {
	src := texturedImage(300, 300)
	img := image.NewNRGBA(src.Bounds())
	for y := 0; y < 300; y++ {
		for x := 0; x < 300; x++ {
			c := src.RGBAAt(x, y)
			img.Set(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 128})
		}
	}
	raw := encodePNG(t, img)

	enc, err := Compress(raw, Options{TargetBytes: len(raw) / 4})
	if err != nil {
		t.Fatalf("Compress error: %v", err)
	}
	if enc.ContentType != "image/jpeg" {
		t.Fatalf("expected jpeg fallback, got %s", enc.ContentType)
	}
}

func TestCompress_UnreachableTargetReturnsSmallest(t *testing.T) {
	raw := encodeJPEG(t, texturedImage(640, 480), 95)

	enc, err := Compress(raw, Options{TargetBytes: 50, MaxDimension: 640, MinDimension: 200})
	if err != nil {
		t.Fatalf("Compress error: %v", err)
	}
	if enc.TargetReached {
		t.Fatalf("expected target not to be reached")
	}
	if len(enc.Data) == 0 {
		t.Fatalf("expected best-effort data")
	}
	if longest := max(enc.Width, enc.Height); longest >= 640 || longest < 200 {
		t.Errorf("expected downscaled result within [200, 640), got %dx%d", enc.Width, enc.Height)
	}
	if enc.Quality != 30 {
		t.Errorf("expected minimum quality, got %d", enc.Quality)
	}
}

func TestCompress_RejectsUnsupportedInput(t *testing.T) {
	for name, raw := range map[string][]byte{
		"empty": nil,
		"text":  []byte("definitely not an image"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Compress(raw, Options{})
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
			}
		})
	}
}

// 1x1 lossy VP8
const tinyWebP = "UklGRiIAAABXRUJQVlA4IBYAAAAwAQCdASoBAAEADsD+JaQAA3AAAAAA"

func TestCompress_DecodesWebP(t *testing.T) {
	raw, err := base64.StdEncoding.DecodeString(tinyWebP)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}

	enc, err := Compress(raw, Options{TargetBytes: 1 << 20})
	if err != nil {
		t.Fatalf("Compress error: %v", err)
	}
	if enc.ContentType != "image/jpeg" {
		t.Errorf("expected webp to be re-encoded as jpeg, got %s", enc.ContentType)
	}
	if enc.Width != 1 || enc.Height != 1 {
		t.Errorf("expected 1x1, got %dx%d", enc.Width, enc.Height)
	}
}

func TestCompress_DecodesGIF(t *testing.T) {
	var buf bytes.Buffer
	if err := gif.Encode(&buf, texturedImage(40, 30), nil); err != nil {
		t.Fatalf("gif encode: %v", err)
	}

	enc, err := Compress(buf.Bytes(), Options{TargetBytes: 1 << 20})
	if err != nil {
		t.Fatalf("Compress error: %v", err)
	}
	if enc.ContentType != "image/jpeg" {
		t.Errorf("expected gif to be re-encoded as jpeg, got %s", enc.ContentType)
	}
	if enc.Width != 40 || enc.Height != 30 {
		t.Errorf("expected 40x30, got %dx%d", enc.Width, enc.Height)
	}
}

// pngHeader — сигнатура и IHDR без данных: хватает для DecodeConfig
func pngHeader(width, height uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor

	chunk := append([]byte("IHDR"), ihdr...)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestCompress_RejectsHugeDimensionsBeforeDecoding(t *testing.T) {
	raw := pngHeader(40000, 40000)

	_, err := Compress(raw, Options{})
	if !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestCompress_MaxPixelsOption(t *testing.T) {
	raw := encodeJPEG(t, texturedImage(100, 100), 80)

	if _, err := Compress(raw, Options{TargetBytes: 1 << 20, MaxPixels: 5000}); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge with MaxPixels=5000, got %v", err)
	}
	if _, err := Compress(raw, Options{TargetBytes: 1 << 20, MaxPixels: 10000}); err != nil {
		t.Fatalf("expected 100x100 to fit MaxPixels=10000, got %v", err)
	}
}
