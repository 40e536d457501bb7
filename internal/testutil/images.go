// Package testutil builds image fixtures shared by package tests.
package testutil

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

// Quadrant colors, chosen far apart so they survive JPEG compression.
var (
	TopLeft     = color.NRGBA{R: 255, A: 255}
	TopRight    = color.NRGBA{G: 255, A: 255}
	BottomLeft  = color.NRGBA{B: 255, A: 255}
	BottomRight = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// GradientImage returns a width x height image whose red channel follows x
// and green channel follows y.
func GradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

// QuadrantImage returns a width x height image split into four solid
// quadrants using the TopLeft, TopRight, BottomLeft and BottomRight colors.
func QuadrantImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := TopLeft
			switch {
			case x >= width/2 && y < height/2:
				c = TopRight
			case x < width/2 && y >= height/2:
				c = BottomLeft
			case x >= width/2 && y >= height/2:
				c = BottomRight
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// EXIF describes the tags written by EncodeJPEG. Zero values are omitted.
type EXIF struct {
	Orientation int
	DateTime    time.Time
	// Thumbnail is stored as the IFD1 JPEG thumbnail. The whole segment
	// must stay under 64 KiB.
	Thumbnail []byte
}

// EncodeJPEG encodes img as a JPEG and, when tags is non-empty, splices in an
// APP1 EXIF segment carrying them.
func EncodeJPEG(t testing.TB, img image.Image, quality int, tags EXIF) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("failed to encode test JPEG: %v", err)
	}
	data := buf.Bytes()

	if tags.Orientation == 0 && tags.DateTime.IsZero() && tags.Thumbnail == nil {
		return data
	}

	app1 := exifSegment(tags)
	out := make([]byte, 0, len(data)+len(app1))
	out = append(out, data[:2]...) // SOI
	out = append(out, app1...)
	out = append(out, data[2:]...)
	return out
}

// exifSegment builds a little-endian TIFF block with IFD0 and, when a
// thumbnail is present, an IFD1 pointing at it.
func exifSegment(tags EXIF) []byte {
	type entry struct {
		tag   uint16
		typ   uint16
		count uint32
		value []byte // inline when len <= 4
	}

	le := binary.LittleEndian

	var entries []entry
	if tags.Orientation != 0 {
		v := make([]byte, 4)
		le.PutUint16(v, uint16(tags.Orientation))
		entries = append(entries, entry{tag: 0x0112, typ: 3, count: 1, value: v})
	}
	if !tags.DateTime.IsZero() {
		s := append([]byte(tags.DateTime.Format("2006:01:02 15:04:05")), 0)
		entries = append(entries, entry{tag: 0x0132, typ: 2, count: uint32(len(s)), value: s})
	}

	ifd0Size := 2 + 12*len(entries) + 4
	dataOffset := uint32(8 + ifd0Size)

	var extra bytes.Buffer
	var ifd0 bytes.Buffer
	_ = binary.Write(&ifd0, le, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(&ifd0, le, e.tag)
		_ = binary.Write(&ifd0, le, e.typ)
		_ = binary.Write(&ifd0, le, e.count)
		if len(e.value) <= 4 {
			v := make([]byte, 4)
			copy(v, e.value)
			ifd0.Write(v)
			continue
		}
		_ = binary.Write(&ifd0, le, dataOffset+uint32(extra.Len()))
		extra.Write(e.value)
		if extra.Len()%2 == 1 {
			extra.WriteByte(0)
		}
	}

	var ifd1 bytes.Buffer
	next := uint32(0)
	if tags.Thumbnail != nil {
		next = dataOffset + uint32(extra.Len())
		const ifd1Size = 2 + 12*2 + 4
		thumbOffset := next + ifd1Size
		_ = binary.Write(&ifd1, le, uint16(2))
		for _, e := range [][2]uint32{{0x0201, thumbOffset}, {0x0202, uint32(len(tags.Thumbnail))}} {
			_ = binary.Write(&ifd1, le, uint16(e[0]))
			_ = binary.Write(&ifd1, le, uint16(4)) // LONG
			_ = binary.Write(&ifd1, le, uint32(1))
			_ = binary.Write(&ifd1, le, e[1])
		}
		_ = binary.Write(&ifd1, le, uint32(0))
		ifd1.Write(tags.Thumbnail)
	}
	_ = binary.Write(&ifd0, le, next)

	var tiff bytes.Buffer
	tiff.WriteString("II")
	_ = binary.Write(&tiff, le, uint16(42))
	_ = binary.Write(&tiff, le, uint32(8))
	tiff.Write(ifd0.Bytes())
	tiff.Write(extra.Bytes())
	tiff.Write(ifd1.Bytes())

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	seg := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	return append(seg, payload...)
}

// WriteJPEG writes a JPEG fixture to dir/name and returns its path.
func WriteJPEG(t testing.TB, dir, name string, img image.Image, tags EXIF) string {
	t.Helper()
	return WriteFile(t, dir, name, EncodeJPEG(t, img, 95, tags))
}

// WritePNG writes a PNG fixture to dir/name and returns its path.
func WritePNG(t testing.TB, dir, name string, img image.Image) string {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test PNG: %v", err)
	}
	return WriteFile(t, dir, name, buf.Bytes())
}

// WriteFile writes data to dir/name, creating dir as needed.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", path, err)
	}
	return path
}

// ColorNear reports whether two colors differ by at most tol per channel.
func ColorNear(a, b color.Color, tol int) bool {
	ca := color.NRGBAModel.Convert(a).(color.NRGBA)
	cb := color.NRGBAModel.Convert(b).(color.NRGBA)
	diff := func(x, y uint8) int {
		d := int(x) - int(y)
		if d < 0 {
			return -d
		}
		return d
	}
	return diff(ca.R, cb.R) <= tol && diff(ca.G, cb.G) <= tol && diff(ca.B, cb.B) <= tol
}
