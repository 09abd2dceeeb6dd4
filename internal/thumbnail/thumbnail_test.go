package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/renamebot/internal/naming"
)

func TestSlot(t *testing.T) {
	vars := naming.ExtractVariables("Show.S03E01.2160p.mkv")
	assert.Equal(t, DefaultSlot, Slot(ModeNormal, vars))
	assert.Equal(t, "s03", Slot(ModeSeason, vars))
	assert.Equal(t, "2160p", Slot(ModeQuality, vars))

	far := naming.ExtractVariables("Show.S12E01.mkv")
	assert.Equal(t, DefaultSlot, Slot(ModeSeason, far))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Season")
	require.NoError(t, err)
	assert.Equal(t, ModeSeason, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeNormal, m)

	_, err = ParseMode("episode")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1280, 720))
	for x := 0; x < 1280; x++ {
		src.Set(x, 10, color.RGBA{R: 200, A: 255})
	}
	var in bytes.Buffer
	require.NoError(t, png.Encode(&in, src))

	out, err := Normalize(in.Bytes())
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	b := img.Bounds()
	assert.Equal(t, 320, b.Dx())
	assert.Equal(t, 180, b.Dy())
}

func TestNormalize_SmallImageKeepsSize(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, jpeg.Encode(&in, image.NewGray(image.Rect(0, 0, 100, 50)), nil))

	out, err := Normalize(in.Bytes())
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestNormalize_Garbage(t *testing.T) {
	_, err := Normalize([]byte("not an image"))
	assert.Error(t, err)
}
