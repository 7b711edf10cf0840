package source

import (
	"bytes"
	"encoding/binary"
	"image"
)

// jpegOrientation extracts the EXIF orientation tag (1..8) from JPEG
// bytes. Returns 1 (normal) when the file is not a JPEG, carries no
// EXIF block or no orientation tag.
//
// Разбирается ровно один тег TIFF, поэтому полноценная EXIF-библиотека
// здесь не нужна.
func jpegOrientation(data []byte) int {
	if len(data) < 4 || data[0] != 0xff || data[1] != 0xd8 {
		return 1
	}

	// Walk JPEG segments looking for APP1/Exif.
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xff {
			return 1
		}
		marker := data[pos+1]
		if marker == 0xda { // start of scan, no EXIF past this point
			return 1
		}
		size := int(binary.BigEndian.Uint16(data[pos+2:])) + 2
		if marker == 0xe1 && pos+size <= len(data) {
			return tiffOrientation(data[pos+4 : pos+size])
		}
		pos += size
	}
	return 1
}

func tiffOrientation(app1 []byte) int {
	if !bytes.HasPrefix(app1, []byte("Exif\x00\x00")) {
		return 1
	}
	tiff := app1[6:]
	if len(tiff) < 8 {
		return 1
	}

	var order binary.ByteOrder
	switch {
	case tiff[0] == 'I' && tiff[1] == 'I':
		order = binary.LittleEndian
	case tiff[0] == 'M' && tiff[1] == 'M':
		order = binary.BigEndian
	default:
		return 1
	}

	ifdOffset := order.Uint32(tiff[4:])
	if int(ifdOffset)+2 > len(tiff) {
		return 1
	}

	count := int(order.Uint16(tiff[ifdOffset:]))
	entry := int(ifdOffset) + 2
	for i := 0; i < count && entry+12 <= len(tiff); i++ {
		tag := order.Uint16(tiff[entry:])
		if tag == 0x0112 { // Orientation
			v := int(order.Uint16(tiff[entry+8:]))
			if v >= 1 && v <= 8 {
				return v
			}
			return 1
		}
		entry += 12
	}
	return 1
}

// applyOrientation transforms pixels per the EXIF orientation value.
func applyOrientation(src *image.RGBA, orientation int) *image.RGBA {
	if orientation <= 1 {
		return src
	}

	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	outW, outH := w, h
	if orientation >= 5 { // поворот на 90°, оси меняются местами
		outW, outH = h, w
	}

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch orientation {
			case 2: // mirror horizontal
				dx, dy = w-1-x, y
			case 3: // rotate 180
				dx, dy = w-1-x, h-1-y
			case 4: // mirror vertical
				dx, dy = x, h-1-y
			case 5: // mirror horizontal + rotate 270 CW
				dx, dy = y, x
			case 6: // rotate 90 CW
				dx, dy = h-1-y, x
			case 7: // mirror horizontal + rotate 90 CW
				dx, dy = h-1-y, w-1-x
			case 8: // rotate 270 CW
				dx, dy = y, w-1-x
			}
			dst.SetRGBA(dx, dy, src.RGBAAt(x, y))
		}
	}
	return dst
}
