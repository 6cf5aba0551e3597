package identity

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

const (
	avatarSize       = 512
	maxAvatarBytes   = 5 << 20
	maxAvatarSide    = 4096
	avatarPathPrefix = "profileImages/"
)

// AvatarPath is the blob path of uid's profile image.
func AvatarPath(uid string) string {
	return avatarPathPrefix + uid
}

// processAvatar decodes a PNG or JPEG upload, centre-crops it to a square and
// scales it to avatarSize.
func processAvatar(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxAvatarBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(raw) > maxAvatarBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxAvatarBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width > maxAvatarSide || cfg.Height > maxAvatarSide {
		return nil, fmt.Errorf("image is %dx%d, larger than %dx%d", cfg.Width, cfg.Height, maxAvatarSide, maxAvatarSide)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	if side == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2

	dst := image.NewRGBA(image.Rect(0, 0, avatarSize, avatarSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, image.Rect(x0, y0, x0+side, y0+side), draw.Src, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}
