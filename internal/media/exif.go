package media

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/MediaVault-Hub/Asset-Service/internal/models"
)

var registerMakerNotes sync.Once

// goexif predates the EXIF 2.3 serial-number tag and defines no constant
// for it.
const bodySerialNumber = exif.FieldName("BodySerialNumber")

// Numeric enum codes are rendered as human-readable labels; unknown codes
// pass through as their raw string form rather than being dropped.
var (
	meteringModes = map[int]string{
		0: "Unknown",
		1: "Average",
		2: "Center-weighted average",
		3: "Spot",
		4: "Multi-spot",
		5: "Multi-segment",
		6: "Partial",
	}
	exposurePrograms = map[int]string{
		0: "Not defined",
		1: "Manual",
		2: "Program AE",
		3: "Aperture-priority AE",
		4: "Shutter-priority AE",
		5: "Creative",
		6: "Action",
		7: "Portrait",
		8: "Landscape",
	}
	whiteBalances = map[int]string{
		0: "Auto",
		1: "Manual",
	}
	flashStates = map[int]string{
		0x00: "No flash",
		0x01: "Fired",
		0x05: "Fired, return not detected",
		0x07: "Fired, return detected",
		0x08: "On, did not fire",
		0x09: "On, fired",
		0x10: "Off, did not fire",
		0x18: "Auto, did not fire",
		0x19: "Auto, fired",
		0x20: "No flash function",
	}
	orientations = map[int]string{
		1: "Horizontal",
		2: "Mirror horizontal",
		3: "Rotate 180",
		4: "Mirror vertical",
		5: "Mirror horizontal and rotate 270 CW",
		6: "Rotate 90 CW",
		7: "Mirror horizontal and rotate 90 CW",
		8: "Rotate 270 CW",
	}
	colorSpaces = map[int]string{
		1:      "sRGB",
		2:      "Adobe RGB",
		0xFFFF: "Uncalibrated",
	}
)

// ExtractMetadata decodes the embedded EXIF block of the image at path and
// maps it into an ImageMetadata record. A missing or undecodable block
// yields (nil, nil): absence of capture metadata is not an error. Fields the
// block does not carry stay nil.
func (p *ImageProcessor) ExtractMetadata(path string) (*models.ImageMetadata, error) {
	registerMakerNotes.Do(func() {
		exif.RegisterParsers(mknote.All...)
	})

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// No EXIF block at all: yields no metadata record, not an empty one.
		return nil, nil
	}

	meta := &models.ImageMetadata{
		CameraMake:   stringTag(x, exif.Make),
		CameraModel:  stringTag(x, exif.Model),
		CameraSerial: stringTag(x, bodySerialNumber),
		LensModel:    stringTag(x, exif.LensModel),
		Software:     stringTag(x, exif.Software),
		FNumber:      ratioTag(x, exif.FNumber),
		ISO:          intTag(x, exif.ISOSpeedRatings),
		FocalLength:  ratioTag(x, exif.FocalLength),
	}

	if t, err := x.DateTime(); err == nil {
		meta.TakenAt = &t
	}

	if tag, err := x.Get(exif.ExposureTime); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			s := formatExposure(num, den)
			meta.ExposureTime = &s
		}
	}

	meta.MeteringMode = labelTag(x, exif.MeteringMode, meteringModes)
	meta.ExposureProgram = labelTag(x, exif.ExposureProgram, exposurePrograms)
	meta.WhiteBalance = labelTag(x, exif.WhiteBalance, whiteBalances)
	meta.Flash = labelTag(x, exif.Flash, flashStates)
	meta.Orientation = labelTag(x, exif.Orientation, orientations)
	meta.ColorSpace = labelTag(x, exif.ColorSpace, colorSpaces)

	meta.GPSLatitude = gpsTag(x, exif.GPSLatitude, exif.GPSLatitudeRef)
	meta.GPSLongitude = gpsTag(x, exif.GPSLongitude, exif.GPSLongitudeRef)
	meta.GPSAltitude = ratioTag(x, exif.GPSAltitude)

	if tag, err := x.Get(exif.ExifVersion); err == nil {
		if s, err := tag.StringVal(); err == nil && strings.TrimSpace(s) != "" {
			v := formatVersion(s)
			meta.ExifVersion = &v
		}
	}

	meta.VendorTags, meta.RawTags = collectBags(x)
	return meta, nil
}

// mappedFields are decoded into dedicated columns and excluded from the
// fallback bags.
var mappedFields = map[exif.FieldName]bool{
	exif.Make:             true,
	exif.Model:            true,
	bodySerialNumber:      true,
	exif.LensModel:        true,
	exif.Software:         true,
	exif.DateTime:         true,
	exif.DateTimeOriginal: true,
	exif.ExposureTime:     true,
	exif.FNumber:          true,
	exif.ISOSpeedRatings:  true,
	exif.FocalLength:      true,
	exif.MeteringMode:     true,
	exif.ExposureProgram:  true,
	exif.WhiteBalance:     true,
	exif.Flash:            true,
	exif.Orientation:      true,
	exif.ColorSpace:       true,
	exif.ExifVersion:      true,
	exif.GPSLatitude:      true,
	exif.GPSLatitudeRef:   true,
	exif.GPSLongitude:     true,
	exif.GPSLongitudeRef:  true,
	exif.GPSAltitude:      true,
	exif.GPSAltitudeRef:   true,
}

type bagCollector struct {
	vendor models.TagBag
	raw    models.TagBag
}

func (c *bagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if mappedFields[name] {
		return nil
	}
	value := strings.Trim(tag.String(), `"`)
	if value == "" {
		return nil
	}
	// Maker-note parsers register namespaced fields (e.g. Canon.ShotInfo);
	// those carry the vendor-specific processing flags.
	if strings.Contains(string(name), ".") {
		c.vendor[string(name)] = value
	} else {
		c.raw[string(name)] = value
	}
	return nil
}

func collectBags(x *exif.Exif) (models.TagBag, models.TagBag) {
	c := &bagCollector{vendor: models.TagBag{}, raw: models.TagBag{}}
	_ = x.Walk(c)
	if len(c.vendor) == 0 {
		c.vendor = nil
	}
	if len(c.raw) == 0 {
		c.raw = nil
	}
	return c.vendor, c.raw
}

func stringTag(x *exif.Exif, name exif.FieldName) *string {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	s, err := tag.StringVal()
	if err != nil {
		return nil
	}
	s = strings.TrimRight(strings.TrimSpace(s), "\x00")
	if s == "" {
		return nil
	}
	return &s
}

func intTag(x *exif.Exif, name exif.FieldName) *int {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	v, err := tag.Int(0)
	if err != nil {
		return nil
	}
	return &v
}

func ratioTag(x *exif.Exif, name exif.FieldName) *float64 {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return nil
	}
	v := float64(num) / float64(den)
	return &v
}

func labelTag(x *exif.Exif, name exif.FieldName, labels map[int]string) *string {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	code, err := tag.Int(0)
	if err != nil {
		return nil
	}
	s := lookupLabel(labels, code)
	return &s
}

// lookupLabel resolves a numeric enum code; unknown codes pass through as
// their raw string form.
func lookupLabel(labels map[int]string, code int) string {
	if label, ok := labels[code]; ok {
		return label
	}
	return strconv.Itoa(code)
}

func gpsTag(x *exif.Exif, coord, ref exif.FieldName) *float64 {
	tag, err := x.Get(coord)
	if err != nil {
		return nil
	}
	var dms [3]float64
	for i := 0; i < 3; i++ {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return nil
		}
		dms[i] = float64(num) / float64(den)
	}

	refVal := ""
	if refTag, err := x.Get(ref); err == nil {
		if s, err := refTag.StringVal(); err == nil {
			refVal = s
		}
	}

	v := dmsToDecimal(dms[0], dms[1], dms[2], refVal)
	return &v
}

// dmsToDecimal converts degrees/minutes/seconds to signed decimal degrees.
// South and West references flip the sign.
func dmsToDecimal(deg, min, sec float64, ref string) float64 {
	v := deg + min/60 + sec/3600
	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "S", "W":
		return -v
	}
	return v
}

// formatExposure renders an exposure time rational. Sub-second values come
// out as a reduced fraction ("1/125"); one second and above as decimal
// seconds.
func formatExposure(num, den int64) string {
	if num <= 0 || den <= 0 {
		return fmt.Sprintf("%d/%d", num, den)
	}
	if num >= den {
		return strconv.FormatFloat(float64(num)/float64(den), 'f', -1, 64)
	}
	g := gcd(num, den)
	return fmt.Sprintf("%d/%d", num/g, den/g)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// formatVersion normalizes a hex-encoded version tag into an uppercase
// zero-padded form ("0230").
func formatVersion(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
