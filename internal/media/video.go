package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
	ffprobe "gopkg.in/vansante/go-ffprobe.v2"

	"github.com/MediaVault-Hub/Asset-Service/internal/models"
)

// VideoProcessor derives stream metadata and a representative-frame
// thumbnail from a stored video. Probing and frame extraction shell out to
// ffprobe/ffmpeg as blocking calls bounded by an explicit timeout.
type VideoProcessor struct {
	ffmpegPath   string
	timeout      time.Duration
	frameOffset  time.Duration
	thumbSize    int
	thumbQuality int
}

// NewVideoProcessor configures video derivation. frameOffset is the fixed
// seek position for the representative thumbnail frame; files shorter than
// the offset fall back to their first frame via a second extraction attempt.
func NewVideoProcessor(ffmpegPath string, timeout, frameOffset time.Duration, thumbSize, thumbQuality int) *VideoProcessor {
	return &VideoProcessor{
		ffmpegPath:   ffmpegPath,
		timeout:      timeout,
		frameOffset:  frameOffset,
		thumbSize:    thumbSize,
		thumbQuality: thumbQuality,
	}
}

// Probe runs ffprobe against the file and maps the result into a
// VideoMetadata record plus the pixel dimensions of the first video stream.
// The full probe output is retained as a raw serialized dump.
func (p *VideoProcessor) Probe(ctx context.Context, path string) (*models.VideoMetadata, int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	data, err := ffprobe.ProbeURL(ctx, path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	meta := &models.VideoMetadata{
		VideoStreams:    len(data.StreamType(ffprobe.StreamVideo)),
		AudioStreams:    len(data.StreamType(ffprobe.StreamAudio)),
		SubtitleStreams: len(data.StreamType(ffprobe.StreamSubtitle)),
	}

	if raw, err := json.Marshal(data); err == nil {
		meta.RawProbe = types.JSONText(raw)
	}

	var tagSignals []string
	if data.Format != nil {
		if data.Format.DurationSeconds > 0 {
			d := data.Format.DurationSeconds
			meta.DurationSeconds = &d
		}
		meta.TotalBitrate = parseBitrate(data.Format.BitRate)
		tagSignals = append(tagSignals, tagValues(data.Format.TagList)...)
	}

	var width, height int
	if vs := data.FirstVideoStream(); vs != nil {
		width, height = vs.Width, vs.Height
		meta.VideoCodec = optional(vs.CodecName)
		meta.VideoBitrate = parseBitrate(vs.BitRate)
		meta.PixelFormat = optional(vs.PixFmt)
		meta.ColorPrimaries = optional(vs.ColorPrimaries)
		meta.ColorTransfer = optional(vs.ColorTransfer)
		meta.ColorRange = optional(vs.ColorRange)

		if fr := parseFrameRate(vs.AvgFrameRate); fr != nil {
			meta.FrameRate = fr
		} else {
			meta.FrameRate = parseFrameRate(vs.RFrameRate)
		}

		meta.BitDepth = bitDepth(vs.BitsPerRawSample, vs.PixFmt)

		tagSignals = append(tagSignals, vs.Profile)
		tagSignals = append(tagSignals, tagValues(vs.TagList)...)
	}

	if as := data.FirstAudioStream(); as != nil {
		meta.AudioCodec = optional(as.CodecName)
		meta.AudioBitrate = parseBitrate(as.BitRate)
	}

	isHDR, format := classifyHDR(deref(meta.ColorTransfer), deref(meta.ColorPrimaries), tagSignals)
	meta.IsHDR = isHDR
	if format != "" {
		meta.HDRFormat = &format
	}

	return meta, width, height, nil
}

// Thumbnail extracts a single frame at the configured offset and encodes it
// as a JPEG bounded to the thumbnail size. If seeking past the end produces
// no frame, the first frame is used instead.
func (p *VideoProcessor) Thumbnail(ctx context.Context, path string) (*bytes.Buffer, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	buf, err := p.extractFrame(ctx, path, p.frameOffset)
	if err == nil && buf.Len() > 0 {
		return buf, nil
	}
	return p.extractFrame(ctx, path, 0)
}

func (p *VideoProcessor) extractFrame(ctx context.Context, path string, offset time.Duration) (*bytes.Buffer, error) {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", strconv.FormatFloat(offset.Seconds(), 'f', 2, 64),
		"-i", path,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=min(%d\\,iw):-2", p.thumbSize),
		"-f", "image2",
		"-c:v", "mjpeg",
		"-q:v", strconv.Itoa(jpegQScale(p.thumbQuality)),
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame at offset %s", offset)
	}
	return &stdout, nil
}

// jpegQScale maps a 1-100 JPEG quality to ffmpeg's inverted 2-31 qscale.
func jpegQScale(quality int) int {
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	q := 31 - quality*29/100
	if q < 2 {
		q = 2
	}
	return q
}

// parseFrameRate parses ffprobe's rational frame-rate representation
// ("30000/1001"). A zero denominator yields nil (unknown) rather than an
// error.
func parseFrameRate(r string) *float64 {
	num, den, ok := splitRational(r)
	if !ok || den == 0 || num == 0 {
		return nil
	}
	v := num / den
	return &v
}

func splitRational(r string) (float64, float64, bool) {
	parts := strings.SplitN(strings.TrimSpace(r), "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, false
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return num, den, true
}

func parseBitrate(s string) *int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

func tagValues(tags map[string]interface{}) []string {
	out := make([]string, 0, len(tags))
	for k, v := range tags {
		out = append(out, k)
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
