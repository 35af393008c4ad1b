// Command giggle runs the orchestrator: the HTTP API, the cron trigger and
// the render-results consumer. Runs walk one topic from backlog selection
// through research, scripting and render dispatch; the render worker
// (cmd/giggle-render) reports back over Kafka.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"giggle/agents"
	"giggle/api"
	"giggle/config"
	"giggle/dedupe"
	"giggle/kafka"
	"giggle/llm"
	"giggle/notion"
	"giggle/pipeline"
	"giggle/search"
	"giggle/storage"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	settings := config.Load()
	if err := settings.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	if settings.S3Bucket == "" {
		logrus.Fatal("S3_BUCKET is required: the pipeline stores digests and scripts in S3")
	}

	ctx := context.Background()

	notionClient, err := notion.NewClient(settings.NotionAPIKey, settings.NotionDatabaseID)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create notion client")
	}

	llmClient, err := llm.NewClient(settings.CohereAPIKey, settings.DefaultModel)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create cohere client")
	}

	guard, err := dedupe.NewGuard(dedupe.GuardConfig{
		Addr:     settings.RedisAddr,
		Password: settings.RedisPass,
	}, llmClient)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create dedupe guard")
	}
	defer guard.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     settings.RedisAddr,
		Password: settings.RedisPass,
	})
	lease := pipeline.NewLease(rdb, 0)

	artifacts, err := storage.New(ctx, storage.Config{
		Bucket: settings.S3Bucket,
		Region: settings.S3Region,
		Prefix: settings.S3Prefix,
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create artifact store")
	}

	producer, err := kafka.NewProducer(settings.KafkaBrokers, settings.RenderRequestTopic)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create kafka producer")
	}
	defer producer.Close()

	selector := agents.NewSelector(notionClient, llmClient, guard)
	researcher := agents.NewResearcher(notionClient, newSearcher(settings), llmClient)
	scriptwriter := agents.NewScriptwriter(notionClient, llmClient)

	state := pipeline.NewStateManager()
	runner := pipeline.NewRunner(pipeline.RunnerDeps{
		State:        state,
		Selector:     selector,
		Researcher:   researcher,
		Scriptwriter: scriptwriter,
		Artifacts:    artifacts,
		Producer:     producer,
		Lease:        lease,
		Store:        notionClient,
	})

	resultHandler := pipeline.NewResultHandler(state, notionClient, lease, guard)
	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: settings.KafkaBrokers,
		Topic:   settings.RenderResultTopic,
		GroupID: settings.KafkaGroupID,
		Handler: resultHandler.MessageHandler(),
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create render-results consumer")
	}

	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	defer cancelConsumer()
	if err := consumer.Start(consumerCtx); err != nil {
		logrus.WithError(err).Fatal("failed to start render-results consumer")
	}

	server := api.NewServer(state, runner, settings.Port)
	server.Start()
	if err := server.StartCron(settings.CronSchedule); err != nil {
		logrus.WithError(err).Fatal("failed to start cron trigger")
	}

	logrus.WithFields(logrus.Fields{
		"port":    settings.Port,
		"brokers": settings.KafkaBrokers,
		"cron":    settings.CronSchedule,
	}).Info("orchestrator running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("server shutdown error")
	}
	cancelConsumer()
	if err := consumer.Close(); err != nil {
		logrus.WithError(err).Error("consumer close error")
	}
}

// newSearcher returns the Exa-backed search layer, or nil when no API key is
// configured so the researcher falls back to RSS feeds.
func newSearcher(settings *config.Settings) agents.Searcher {
	if settings.ExaAPIKey == "" {
		logrus.Warn("EXA_API_KEY not set, research will use feed fallback")
		return nil
	}
	client, err := search.NewClient(settings.ExaAPIKey)
	if err != nil {
		logrus.WithError(err).Warn("failed to create search client, using feed fallback")
		return nil
	}
	return client
}
