package photos

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"log/slog"
	"net/http"

	_ "image/gif"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrImageTooLarge: заявленное в заголовке разрешение больше MaxPixels
	ErrImageTooLarge = errors.New("image dimensions too large")
)

const (
	contentTypeJPEG = "image/jpeg"
	contentTypePNG  = "image/png"
)

type Options struct {
	// TargetBytes — желаемый максимальный размер результата
	TargetBytes  int
	MaxDimension int
	// MinDimension — ниже этой длинной стороны дальше не уменьшаем
	MinDimension int
	MinQuality   int
	MaxQuality   int
	// MaxPixels — предел width*height до полного декодирования
	MaxPixels int
}

func DefaultOptions() Options {
	return Options{
		TargetBytes:  300 * 1024,
		MaxDimension: 1600,
		MinDimension: 320,
		MinQuality:   30,
		MaxQuality:   92,
		MaxPixels:    40_000_000,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TargetBytes <= 0 {
		o.TargetBytes = d.TargetBytes
	}
	if o.MaxDimension <= 0 {
		o.MaxDimension = d.MaxDimension
	}
	if o.MinDimension <= 0 {
		o.MinDimension = d.MinDimension
	}
	if o.MinQuality <= 0 || o.MinQuality > 100 {
		o.MinQuality = d.MinQuality
	}
	if o.MaxQuality <= 0 || o.MaxQuality > 100 {
		o.MaxQuality = d.MaxQuality
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = d.MaxPixels
	}
	if o.MinQuality > o.MaxQuality {
		o.MinQuality, o.MaxQuality = o.MaxQuality, o.MinQuality
	}
	return o
}

type Encoded struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	// Quality — качество JPEG; 0 для PNG и исходных байт
	Quality int
	// TargetReached=false: даже при минимальном качестве и размере файл больше цели
	TargetReached bool
}

// Compress приводит фото к размеру не больше TargetBytes: подбирает качество
// JPEG бинарным поиском, при необходимости уменьшает картинку. Прозрачные
// изображения остаются PNG, если PNG укладывается в лимит.
func Compress(raw []byte, opts Options) (*Encoded, error) {
	opts = opts.withDefaults()

	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnsupportedFormat)
	}

	mime := http.DetectContentType(raw)
	if err := checkDimensions(raw, mime, opts.MaxPixels); err != nil {
		return nil, err
	}
	img, err := decode(raw, mime)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	slog.Debug("photos: decoded upload",
		"content_type", mime,
		"input_size_bytes", len(raw),
		"width", bounds.Dx(),
		"height", bounds.Dy())

	fitted, resized := fitWithin(img, opts.MaxDimension)

	// уже подходящий JPEG не перекодируем
	if mime == contentTypeJPEG && !resized && len(raw) <= opts.TargetBytes {
		return &Encoded{
			Data:          raw,
			ContentType:   contentTypeJPEG,
			Width:         bounds.Dx(),
			Height:        bounds.Dy(),
			TargetReached: true,
		}, nil
	}

	if hasAlpha(fitted) {
		var buf bytes.Buffer
		if err := png.Encode(&buf, fitted); err == nil && buf.Len() <= opts.TargetBytes {
			b := fitted.Bounds()
			return &Encoded{
				Data:          buf.Bytes(),
				ContentType:   contentTypePNG,
				Width:         b.Dx(),
				Height:        b.Dy(),
				TargetReached: true,
			}, nil
		}
		slog.Debug("photos: PNG does not fit target; falling back to JPEG")
	}

	current := flatten(fitted)
	var best *Encoded
	for {
		enc, err := searchQuality(current, opts)
		if err != nil {
			return nil, err
		}
		if best == nil || len(enc.Data) < len(best.Data) {
			best = enc
		}
		if enc.TargetReached {
			return enc, nil
		}

		b := current.Bounds()
		next := longestSide(b) * 3 / 4
		if next < opts.MinDimension {
			break
		}
		slog.Debug("photos: target not reached; downscaling",
			"size_bytes", len(enc.Data),
			"target_bytes", opts.TargetBytes,
			"next_longest_side", next)
		current, _ = fitWithin(current, next)
	}

	slog.Warn("photos: target size not reached",
		"size_bytes", len(best.Data),
		"target_bytes", opts.TargetBytes,
		"width", best.Width,
		"height", best.Height)
	return best, nil
}

// checkDimensions читает только заголовок, чтобы не выделять память под
// картинку с огромным заявленным разрешением
func checkDimensions(raw []byte, mime string, maxPixels int) error {
	var (
		cfg image.Config
		err error
	)
	switch mime {
	case "image/webp":
		cfg, err = webp.DecodeConfig(bytes.NewReader(raw))
	case contentTypeJPEG, contentTypePNG, "image/gif":
		cfg, _, err = image.DecodeConfig(bytes.NewReader(raw))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
	}
	if err != nil {
		return fmt.Errorf("failed to read image header: %w", err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

func decode(raw []byte, mime string) (image.Image, error) {
	switch mime {
	case "image/webp":
		img, err := webp.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode webp: %w", err)
		}
		return img, nil
	case contentTypeJPEG, contentTypePNG, "image/gif":
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
	}
}

// searchQuality ищет максимальное качество, при котором JPEG влезает в цель
func searchQuality(img image.Image, opts Options) (*Encoded, error) {
	b := img.Bounds()
	lo, hi := opts.MinQuality, opts.MaxQuality

	var fit, smallest *Encoded
	for lo <= hi {
		mid := (lo + hi) / 2

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: mid}); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		enc := &Encoded{
			Data:        buf.Bytes(),
			ContentType: contentTypeJPEG,
			Width:       b.Dx(),
			Height:      b.Dy(),
			Quality:     mid,
		}

		if smallest == nil || len(enc.Data) < len(smallest.Data) {
			smallest = enc
		}
		if buf.Len() <= opts.TargetBytes {
			enc.TargetReached = true
			fit = enc
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}

	if fit != nil {
		return fit, nil
	}
	return smallest, nil
}

func longestSide(r image.Rectangle) int {
	if r.Dx() > r.Dy() {
		return r.Dx()
	}
	return r.Dy()
}

// fitWithin уменьшает изображение так, чтобы длинная сторона была <= maxSide
func fitWithin(img image.Image, maxSide int) (image.Image, bool) {
	b := img.Bounds()
	longest := longestSide(b)
	if longest <= maxSide || longest == 0 {
		return img, false
	}

	w := b.Dx() * maxSide / longest
	h := b.Dy() * maxSide / longest
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst, true
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}

// flatten кладёт изображение на белый фон — JPEG не умеет прозрачность
func flatten(img image.Image) image.Image {
	if !hasAlpha(img) {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
