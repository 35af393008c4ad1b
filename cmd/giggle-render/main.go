// Command giggle-render is the render worker. It consumes render requests
// from Kafka, synthesizes a voiceover, burns word-level subtitles over a
// background clip with ffmpeg, optionally uploads to YouTube and archives to
// S3, then publishes the result back for the orchestrator.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"giggle/config"
	"giggle/kafka"
	"giggle/render"
	"giggle/storage"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	settings := config.Load()

	tts := render.NewTTSClient(settings.TTSServiceURL, config.GetEnvOrDefault("EG_TTS_VOICE", "af_heart"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	uploader := newUploader(ctx)
	archiver := newArchiver(ctx, settings)

	results, err := kafka.NewProducer(settings.KafkaBrokers, settings.RenderResultTopic)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create results producer")
	}
	defer results.Close()

	processor, err := render.NewProcessor(render.ProcessorConfig{
		TTS:            tts,
		Uploader:       uploader,
		Archiver:       archiver,
		Results:        results,
		BackgroundsDir: config.GetEnvOrDefault("EG_BACKGROUNDS_DIR", "backgrounds"),
		OutputDir:      config.GetEnvOrDefault("EG_OUTPUT_DIR", "output"),
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create render processor")
	}

	consumer, err := render.NewConsumer(render.ConsumerConfig{
		Brokers:   settings.KafkaBrokers,
		Topic:     settings.RenderRequestTopic,
		GroupID:   config.GetEnvOrDefault("EG_RENDER_GROUP_ID", "giggle-render"),
		Processor: processor,
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create render consumer")
	}

	if err := consumer.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to start render consumer")
	}
	logrus.Info("render worker running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logrus.Info("shutting down")
	cancel()
	if err := consumer.Close(); err != nil {
		logrus.WithError(err).Error("consumer close error")
	}
}

// newUploader builds the YouTube uploader when a service account file is
// configured. Without one the worker runs render-only.
func newUploader(ctx context.Context) render.VideoUploader {
	file := os.Getenv("EG_YT_SERVICE_ACCOUNT")
	if file == "" {
		return nil
	}
	uploader, err := render.NewUploader(ctx, file)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create youtube uploader")
	}
	return uploader
}

// newArchiver builds the S3 archiver when a bucket is configured.
func newArchiver(ctx context.Context, settings *config.Settings) render.VideoArchiver {
	if settings.S3Bucket == "" {
		logrus.Warn("S3_BUCKET not set, rendered videos will not be archived")
		return nil
	}
	store, err := storage.New(ctx, storage.Config{
		Bucket: settings.S3Bucket,
		Region: settings.S3Region,
		Prefix: settings.S3Prefix,
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create artifact store")
	}
	return store
}
