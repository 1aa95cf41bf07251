package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHDRVendorTagsOutrankTransfer(t *testing.T) {
	// A Dolby Vision marker wins even when the transfer function alone
	// would classify as HDR10.
	isHDR, format := classifyHDR("smpte2084", "bt2020", []string{"dvhe.05.06"})
	assert.True(t, isHDR)
	assert.Equal(t, "Dolby Vision", format)

	isHDR, format = classifyHDR("smpte2084", "", []string{"com.apple.quicktime.hdr10plus", "HDR10+ Profile B"})
	assert.True(t, isHDR)
	assert.Equal(t, "HDR10+", format)
}

func TestClassifyHDRTransferInference(t *testing.T) {
	isHDR, format := classifyHDR("smpte2084", "", nil)
	assert.True(t, isHDR)
	assert.Equal(t, "HDR10", format)

	isHDR, format = classifyHDR("arib-std-b67", "", nil)
	assert.True(t, isHDR)
	assert.Equal(t, "HLG", format)
}

func TestClassifyHDRWideGamutPrimaries(t *testing.T) {
	isHDR, format := classifyHDR("", "bt2020", nil)
	assert.True(t, isHDR)
	assert.Equal(t, "HDR10", format)
}

func TestClassifyHDRGenericTagFallback(t *testing.T) {
	isHDR, format := classifyHDR("bt709", "bt709", []string{"mastered_in_hdr"})
	assert.True(t, isHDR)
	assert.Equal(t, "HDR", format)
}

func TestClassifyHDRNoSignals(t *testing.T) {
	isHDR, format := classifyHDR("bt709", "bt709", []string{"eng", "Core Media Video"})
	assert.False(t, isHDR)
	assert.Empty(t, format)
}

func TestBitDepthExplicitFieldWins(t *testing.T) {
	d := bitDepth("10", "yuv420p")
	if assert.NotNil(t, d) {
		assert.Equal(t, 10, *d)
	}
}

func TestBitDepthFromPixelFormat(t *testing.T) {
	tests := []struct {
		pixFmt string
		want   int
	}{
		{"yuv420p10le", 10},
		{"yuv422p12le", 12},
		{"p016le", 16},
		{"yuv420p", 8},
		{"nv12", 8}, // digits in the name, not a depth marker
		{"nv21", 8},
	}
	for _, tt := range tests {
		d := bitDepth("", tt.pixFmt)
		if assert.NotNil(t, d, tt.pixFmt) {
			assert.Equal(t, tt.want, *d, tt.pixFmt)
		}
	}
}

func TestBitDepthUnknown(t *testing.T) {
	assert.Nil(t, bitDepth("", ""))
	assert.Nil(t, bitDepth("", "monow"))
	assert.Nil(t, bitDepth("N/A", "exotic_fmt"))
}

func TestParseFrameRate(t *testing.T) {
	fr := parseFrameRate("30000/1001")
	if assert.NotNil(t, fr) {
		assert.InDelta(t, 29.97, *fr, 0.01)
	}

	fr = parseFrameRate("25/1")
	if assert.NotNil(t, fr) {
		assert.InDelta(t, 25.0, *fr, 0.001)
	}

	// Zero denominator yields unknown, never a panic.
	assert.Nil(t, parseFrameRate("0/0"))
	assert.Nil(t, parseFrameRate("30/0"))
	assert.Nil(t, parseFrameRate(""))
	assert.Nil(t, parseFrameRate("garbage"))
}

func TestJPEGQScale(t *testing.T) {
	// Higher quality maps to a lower (better) qscale, clamped to ffmpeg's range.
	assert.Equal(t, 2, jpegQScale(100))
	assert.Less(t, jpegQScale(90), jpegQScale(40))
	assert.Equal(t, jpegQScale(80), jpegQScale(0)) // out-of-range falls back to the default
}
