// Package render turns a narration script into a published vertical video:
// voiceover synthesis, subtitle overlay, ffmpeg assembly and YouTube upload.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"giggle/types"
)

// Voiceover is the synthesized narration: where to fetch the audio and the
// per-word timing used for subtitle highlighting.
type Voiceover struct {
	AudioURL string                `json:"audio_url"`
	Words    []types.WordTimestamp `json:"words"`
}

// TTSClient calls the speech synthesis service.
type TTSClient struct {
	httpClient *http.Client
	baseURL    string
	voice      string
}

// NewTTSClient creates a client for the TTS service at baseURL.
func NewTTSClient(baseURL, voice string) *TTSClient {
	return &TTSClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    baseURL,
		voice:      voice,
	}
}

// Synthesize sends the script to the TTS service and returns the voiceover.
func (c *TTSClient) Synthesize(ctx context.Context, script string) (*Voiceover, error) {
	payload, err := json.Marshal(map[string]string{
		"text":  script,
		"voice": c.voice,
	})
	if err != nil {
		return nil, err
	}

	var voiceover Voiceover
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesize", bytes.NewReader(payload))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return fmt.Errorf("tts service returned %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("tts service returned %d", resp.StatusCode))
			}
			if err := json.NewDecoder(resp.Body).Decode(&voiceover); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode tts response: %w", err))
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(2*time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("synthesize voiceover: %w", err)
	}

	if voiceover.AudioURL == "" {
		return nil, fmt.Errorf("tts service returned no audio url")
	}
	if len(voiceover.Words) == 0 {
		return nil, fmt.Errorf("tts service returned no word timestamps")
	}
	return &voiceover, nil
}
