package render

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const (
	videoWidth       = 1080
	videoHeight      = 1920
	videoCodec       = "libx264"
	audioCodec       = "aac"
	audioBitrate     = "192k"
	videoPreset      = "fast"
	maxVideoDuration = 180.0
	videoEndPadding  = 0.5
)

// CreateVideo overlays word-highlighted subtitles on the background clip and
// merges the voiceover audio, producing a 1080x1920 vertical mp4.
func CreateVideo(uuid string, voiceover *Voiceover, backgroundVideoPath, outputPath string) error {
	tmpDir := os.TempDir()
	audioPath := filepath.Join(tmpDir, fmt.Sprintf("%s_audio.mp3", uuid))
	if err := downloadFile(voiceover.AudioURL, audioPath); err != nil {
		return fmt.Errorf("download voiceover: %w", err)
	}
	defer os.Remove(audioPath)

	assPath := filepath.Join(tmpDir, fmt.Sprintf("%s_subtitles.ass", uuid))
	if err := generateASS(voiceover.Words, assPath); err != nil {
		return fmt.Errorf("generate subtitles: %w", err)
	}
	defer os.Remove(assPath)

	// Last word end plus a beat of silence, capped at the platform limit.
	duration := voiceover.Words[len(voiceover.Words)-1].End + videoEndPadding
	duration = math.Min(duration, maxVideoDuration)

	video := ffmpeg.Input(backgroundVideoPath, ffmpeg.KwArgs{"t": fmt.Sprintf("%.2f", duration)})
	audio := ffmpeg.Input(audioPath)

	// Center-crop to 9:16 so horizontal backgrounds come out vertical.
	videoCropped := ffmpeg.Filter(
		[]*ffmpeg.Stream{video},
		"crop",
		ffmpeg.Args{"ih*9/16:ih"},
	).Filter(
		"scale",
		ffmpeg.Args{fmt.Sprintf("%d:%d", videoWidth, videoHeight)},
	)

	assPathForFFmpeg := strings.ReplaceAll(filepath.ToSlash(assPath), ":", "\\:")
	videoWithSubs := ffmpeg.Filter(
		[]*ffmpeg.Stream{videoCropped}, "ass", ffmpeg.Args{assPathForFFmpeg},
	)

	err := ffmpeg.Output([]*ffmpeg.Stream{videoWithSubs, audio}, outputPath, ffmpeg.KwArgs{
		"c:v":      videoCodec,
		"c:a":      audioCodec,
		"b:a":      audioBitrate,
		"preset":   videoPreset,
		"shortest": "",
	}).OverWriteOutput().Run()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}

func downloadFile(url, path string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}
