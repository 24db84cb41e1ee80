package lightatlas

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/mrjoshuak/go-openexr/exr"
)

// mirrorProvider is satisfied by textures whose pixel planes are
// CPU-accessible: ImageTexture returns itself, GPU backends return the
// software mirror their textures carry.
type mirrorProvider interface {
	Mirror() *ImageTexture
}

// uploader is satisfied by GPU-backed textures that push mirror pixels
// to the device after a CPU-side write. Software textures have no GPU
// side and skip this step.
type uploader interface {
	Upload() error
}

// LoadEnvironment decodes an OpenEXR environment map from r and creates
// an equirect source texture on dev, ready to feed GenerateAtlas and
// the other layout operations. size is the byte length of the encoded
// stream. The texture format follows the device capability chain of
// SelectLightingFormat; pixels are stored as linear radiance either
// way.
func LoadEnvironment(dev Device, r io.ReaderAt, size int64, label string) (Texture, error) {
	const op = "load environment"
	img, err := exr.Decode(r, size)
	if err != nil {
		return nil, fmt.Errorf("lightatlas: %s: %w", op, err)
	}
	return environmentTexture(dev, img, label)
}

// LoadEnvironmentFile decodes the OpenEXR file at path into an equirect
// source texture on dev. The texture label is the file's base name.
func LoadEnvironmentFile(dev Device, path string) (Texture, error) {
	const op = "load environment"
	img, err := exr.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("lightatlas: %s %q: %w", op, path, err)
	}
	return environmentTexture(dev, img, filepath.Base(path))
}

// environmentTexture creates an equirect texture sized like img and
// copies its pixels into the texture's CPU plane. GPU-backed textures
// additionally get the pixels pushed through their upload path.
func environmentTexture(dev Device, img *exr.RGBAImage, label string) (Texture, error) {
	const op = "load environment"
	if dev == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNilDevice)
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w <= 0 || h <= 0 {
		return nil, &SourceFormatError{Op: op, Reason: "decoded image is empty"}
	}

	format, encoding := SelectLightingFormat(dev.Capabilities())
	tex, err := dev.CreateTexture(&TextureDescriptor{
		Label:      label,
		Width:      w,
		Height:     h,
		Format:     format,
		Projection: ProjectionEquirect,
		Encoding:   encoding,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	mp, ok := tex.(mirrorProvider)
	if !ok || mp.Mirror() == nil {
		tex.Destroy()
		return nil, fmt.Errorf("lightatlas: %s: device texture has no CPU pixel plane", op)
	}
	face := mp.Mirror().Face(0)

	// EXR decodes to tight row-major RGBA float, the same layout the
	// pixel plane uses.
	if img.Stride == 4 && len(img.Pix) == w*h*4 {
		copy(face.Pix(), img.Pix)
	} else {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, a := img.RGBA(x+img.Rect.Min.X, y+img.Rect.Min.Y)
				face.Set(x, y, r, g, b, a)
			}
		}
	}

	if up, ok := tex.(uploader); ok {
		if err := up.Upload(); err != nil {
			tex.Destroy()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	Logger().Debug("environment source loaded",
		"label", label,
		"width", w,
		"height", h)
	return tex, nil
}
