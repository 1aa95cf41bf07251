package media

import (
	"strconv"
	"strings"
)

// HDR format labels. Classification is a best-effort inference; vendor
// tagging conventions vary and the raw probe dump stays available for
// anything this heuristic gets wrong.
const (
	hdrDolbyVision = "Dolby Vision"
	hdrHDR10Plus   = "HDR10+"
	hdrHDR10       = "HDR10"
	hdrHLG         = "HLG"
	hdrGeneric     = "HDR"
)

// classifyHDR decides whether a video stream is high dynamic range and
// which standard it follows. Priority order: explicit vendor markers beat
// transfer/primaries inference, which beats generic "hdr" tags. No signal
// at all means not HDR.
func classifyHDR(colorTransfer, colorPrimaries string, tags []string) (bool, string) {
	for _, t := range tags {
		lt := strings.ToLower(t)
		if strings.Contains(lt, "dolby vision") || strings.Contains(lt, "dovi") || strings.HasPrefix(lt, "dvhe") || strings.HasPrefix(lt, "dvh1") {
			return true, hdrDolbyVision
		}
		if strings.Contains(lt, "hdr10+") || strings.Contains(lt, "hdr10plus") || strings.Contains(lt, "smpte2094") {
			return true, hdrHDR10Plus
		}
	}

	transfer := strings.ToLower(strings.TrimSpace(colorTransfer))
	switch transfer {
	case "smpte2084", "smpte st 2084", "pq":
		return true, hdrHDR10
	case "arib-std-b67", "hlg":
		return true, hdrHLG
	}

	primaries := strings.ToLower(strings.TrimSpace(colorPrimaries))
	if strings.Contains(primaries, "bt2020") || strings.Contains(primaries, "bt.2020") {
		return true, hdrHDR10
	}

	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), "hdr") {
			return true, hdrGeneric
		}
	}

	return false, ""
}

// eightBitFormats are common pixel formats with 8-bit samples. Checked
// before digit matching: names like nv12 embed digits that are not a
// depth marker.
var eightBitFormats = map[string]bool{
	"yuv420p":  true,
	"yuv422p":  true,
	"yuv444p":  true,
	"yuvj420p": true,
	"yuvj422p": true,
	"yuvj444p": true,
	"nv12":     true,
	"nv21":     true,
	"rgb24":    true,
	"bgr24":    true,
	"gray":     true,
}

// bitDepth resolves sample bit depth, preferring the explicit
// bits_per_raw_sample field and falling back to pattern-matching the pixel
// format string. Unresolvable depth stays nil.
func bitDepth(bitsPerRawSample, pixFmt string) *int {
	if v, err := strconv.Atoi(strings.TrimSpace(bitsPerRawSample)); err == nil && v > 0 {
		return &v
	}

	pf := strings.ToLower(strings.TrimSpace(pixFmt))
	if pf == "" {
		return nil
	}
	if eightBitFormats[pf] {
		d := 8
		return &d
	}
	for _, depth := range []int{16, 14, 12, 10} {
		if strings.Contains(pf, strconv.Itoa(depth)) {
			d := depth
			return &d
		}
	}
	return nil
}
