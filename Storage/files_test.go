package Storage

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	img.SetGray(1, 1, color.Gray{Y: 200})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveUpload(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "uploads"), filepath.Join(dir, "outputs"))
	data := pngBytes(t, 40, 30)

	up, err := s.SaveUpload("P001", "skull.PNG", data)
	require.NoError(t, err)
	assert.Equal(t, "png", up.Format)
	assert.Equal(t, "image/png", up.ContentType)
	assert.Equal(t, 40, up.Width)
	assert.Equal(t, 30, up.Height)
	assert.Equal(t, ".png", filepath.Ext(up.Path))
	assert.Equal(t, filepath.Join(dir, "uploads", "P001"), filepath.Dir(up.Path))
	assert.Len(t, up.Hash, 64)

	stored, err := s.Read(up.Path)
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	s.Remove(up.Path, "")
	_, err = os.Stat(up.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestSaveUploadRejectsNonImage(t *testing.T) {
	s := New(t.TempDir(), t.TempDir())
	_, err := s.SaveUpload("P001", "notes.txt", []byte("hello"))
	assert.ErrorIs(t, err, ErrNotImage)
}

// pngHeader returns only the signature and IHDR chunk of a grayscale PNG,
// enough for DecodeConfig to report the dimensions.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestSaveUploadRejectsHugeDimensions(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "uploads"), dir)
	data := pngHeader(60000, 60000)

	_, w, h, err := Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, 60000, w)
	assert.Equal(t, 60000, h)

	_, err = s.SaveUpload("P001", "huge.png", data)
	assert.ErrorIs(t, err, ErrImageTooLarge)
	_, err = os.Stat(filepath.Join(dir, "uploads", "P001"))
	assert.True(t, os.IsNotExist(err), "nothing is written")

	s.MaxPixels = 40 * 30
	_, err = s.SaveUpload("P001", "skull.png", pngBytes(t, 40, 30))
	assert.NoError(t, err, "limit is inclusive")
	_, err = s.SaveUpload("P001", "skull.png", pngBytes(t, 41, 30))
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestHashIsStable(t *testing.T) {
	a := Hash([]byte("same"))
	assert.Equal(t, a, Hash([]byte("same")))
	assert.NotEqual(t, a, Hash([]byte("other")))
}

func TestOutputPathStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, dir)

	p, err := s.OutputPath("../../etc", "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "etc", "report.pdf"), p)

	s.RemoveOutputs("../../etc")
	_, err = os.Stat(filepath.Join(dir, "etc"))
	assert.True(t, os.IsNotExist(err))
}
