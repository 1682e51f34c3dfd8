package media

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solidImage(w, h), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// exifTIFF builds a little-endian TIFF block. dateTime goes in IFD0 and
// original in an Exif sub-IFD; either may be empty.
func exifTIFF(dateTime, original string) []byte {
	le := binary.LittleEndian

	type entry struct {
		tag, typ     uint16
		count, value uint32
	}

	var ifd0 []entry
	if dateTime != "" {
		ifd0 = append(ifd0, entry{tag: 0x0132, typ: 2})
	}
	if original != "" {
		ifd0 = append(ifd0, entry{tag: 0x8769, typ: 4, count: 1})
	}

	ifd0Size := 2 + 12*len(ifd0) + 4
	exifIFDOff := 8 + ifd0Size
	exifIFDSize := 0
	if original != "" {
		exifIFDSize = 2 + 12 + 4
	}
	dataOff := exifIFDOff + exifIFDSize

	var data []byte
	var originalOff uint32
	for i := range ifd0 {
		switch ifd0[i].tag {
		case 0x0132:
			s := dateTime + "\x00"
			ifd0[i].count = uint32(len(s))
			ifd0[i].value = uint32(dataOff + len(data))
			data = append(data, s...)
		case 0x8769:
			ifd0[i].value = uint32(exifIFDOff)
		}
	}
	if original != "" {
		originalOff = uint32(dataOff + len(data))
		data = append(data, original+"\x00"...)
	}

	buf := make([]byte, 0, dataOff+len(data))
	buf = append(buf, 'I', 'I')
	buf = le.AppendUint16(buf, 42)
	buf = le.AppendUint32(buf, 8)

	buf = le.AppendUint16(buf, uint16(len(ifd0)))
	for _, e := range ifd0 {
		buf = le.AppendUint16(buf, e.tag)
		buf = le.AppendUint16(buf, e.typ)
		buf = le.AppendUint32(buf, e.count)
		buf = le.AppendUint32(buf, e.value)
	}
	buf = le.AppendUint32(buf, 0)

	if original != "" {
		buf = le.AppendUint16(buf, 1)
		buf = le.AppendUint16(buf, 0x9003)
		buf = le.AppendUint16(buf, 2)
		buf = le.AppendUint32(buf, uint32(len(original)+1))
		buf = le.AppendUint32(buf, originalOff)
		buf = le.AppendUint32(buf, 0)
	}

	return append(buf, data...)
}

// jpegWithExif splices an APP1 Exif segment right after the SOI marker.
func jpegWithExif(t *testing.T, dateTime, original string) []byte {
	t.Helper()
	base := jpegBytes(t, 8, 8)

	payload := append([]byte("Exif\x00\x00"), exifTIFF(dateTime, original)...)
	seg := []byte{0xFF, 0xE1}
	seg = binary.BigEndian.AppendUint16(seg, uint16(len(payload)+2))
	seg = append(seg, payload...)

	out := append([]byte{}, base[:2]...)
	out = append(out, seg...)
	return append(out, base[2:]...)
}

func writeFile(t *testing.T, dir, name string, data []byte, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
	return path
}
