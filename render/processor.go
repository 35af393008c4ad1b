package render

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"giggle/types"
)

// Synthesizer produces the voiceover for a script.
type Synthesizer interface {
	Synthesize(ctx context.Context, script string) (*Voiceover, error)
}

// VideoUploader publishes a finished video. Nil disables upload (render-only
// mode, used when YouTube credentials are not configured).
type VideoUploader interface {
	UploadVideo(videoPath string, metadata VideoMetadata) (string, error)
}

// VideoArchiver keeps a copy of the rendered file in object storage.
type VideoArchiver interface {
	PutVideo(ctx context.Context, pageID string, body io.Reader) (string, error)
}

// ResultPublisher reports the outcome back to the orchestrator.
type ResultPublisher interface {
	Publish(key string, payload any) error
}

// Processor renders one video per request and publishes the result.
type Processor struct {
	tts         Synthesizer
	uploader    VideoUploader
	archiver    VideoArchiver
	results     ResultPublisher
	backgrounds []string
	outputDir   string

	// createVideo is swapped out in tests; production uses CreateVideo.
	createVideo func(uuid string, voiceover *Voiceover, backgroundPath, outputPath string) error
}

// ProcessorConfig bundles the processor's collaborators.
type ProcessorConfig struct {
	TTS            Synthesizer
	Uploader       VideoUploader
	Archiver       VideoArchiver
	Results        ResultPublisher
	BackgroundsDir string
	OutputDir      string
}

// NewProcessor creates a render processor. It fails when no background clips
// are available.
func NewProcessor(cfg ProcessorConfig) (*Processor, error) {
	backgrounds, err := filepath.Glob(filepath.Join(cfg.BackgroundsDir, "*.mp4"))
	if err != nil {
		return nil, err
	}
	if len(backgrounds) == 0 {
		return nil, fmt.Errorf("no background videos found in %s", cfg.BackgroundsDir)
	}
	if cfg.Uploader == nil {
		logrus.Warn("youtube uploader not configured, running in render-only mode")
	}

	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = "output"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return &Processor{
		tts:         cfg.TTS,
		uploader:    cfg.Uploader,
		archiver:    cfg.Archiver,
		results:     cfg.Results,
		backgrounds: backgrounds,
		outputDir:   outputDir,
		createVideo: CreateVideo,
	}, nil
}

// Process renders the requested video and publishes a RenderResult. Failures
// are reported in the result rather than returned, so the request is not
// redelivered and the orchestrator can close out the run.
func (p *Processor) Process(ctx context.Context, req *types.RenderRequest) error {
	log := logrus.WithFields(logrus.Fields{"uuid": req.UUID, "page_id": req.PageID})
	log.Info("rendering video")

	result, err := p.render(ctx, req)
	if err != nil {
		log.WithError(err).Error("render failed")
		msg := err.Error()
		result = &types.RenderResult{
			UUID:   req.UUID,
			PageID: req.PageID,
			Status: "failure",
			Error:  &msg,
		}
	}

	if err := p.results.Publish(req.PageID, *result); err != nil {
		// Publishing failed; return the error so the request is retried.
		return fmt.Errorf("publish render result: %w", err)
	}
	log.WithField("status", result.Status).Info("render result published")
	return nil
}

func (p *Processor) render(ctx context.Context, req *types.RenderRequest) (*types.RenderResult, error) {
	voiceover, err := p.tts.Synthesize(ctx, req.Script)
	if err != nil {
		return nil, err
	}

	background := p.backgrounds[rand.Intn(len(p.backgrounds))]
	outputPath := filepath.Join(p.outputDir, req.UUID+".mp4")
	if err := p.createVideo(req.UUID, voiceover, background, outputPath); err != nil {
		return nil, err
	}

	result := &types.RenderResult{
		UUID:   req.UUID,
		PageID: req.PageID,
		Status: "success",
	}

	if p.archiver != nil {
		file, err := os.Open(outputPath)
		if err != nil {
			return nil, fmt.Errorf("open rendered video: %w", err)
		}
		key, err := p.archiver.PutVideo(ctx, req.PageID, file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("archive video: %w", err)
		}
		result.S3Key = key
	}

	if p.uploader != nil {
		metadata := GenerateMetadata(req.Title, req.Script, "")
		videoID, err := p.uploader.UploadVideo(outputPath, metadata)
		if err != nil {
			return nil, fmt.Errorf("upload video: %w", err)
		}
		result.VideoID = videoID
		result.VideoURL = "https://youtube.com/shorts/" + videoID
	}

	return result, nil
}
