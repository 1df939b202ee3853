package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"ewintr.nl/vidsum/feed"
	"ewintr.nl/vidsum/fetch"
	"ewintr.nl/vidsum/handler"
	"ewintr.nl/vidsum/model"
	"ewintr.nl/vidsum/normalize"
	"ewintr.nl/vidsum/pipeline"
	"ewintr.nl/vidsum/queue"
	"ewintr.nl/vidsum/storage"
	"ewintr.nl/vidsum/websub"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

func main() {
	godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := slog.New(slog.NewTextHandler(os.Stderr))

	openAIKey := getParam("OPENAI_API_KEY", "")
	if openAIKey == "" {
		logger.Error("missing required parameter", fmt.Errorf("OPENAI_API_KEY is not set"))
		os.Exit(1)
	}
	summarizer := fetch.NewOpenAI(openAIKey)

	transcriptEndpoint := getParam("TRANSCRIPT_ENDPOINT", "")
	if transcriptEndpoint == "" {
		logger.Error("missing required parameter", fmt.Errorf("TRANSCRIPT_ENDPOINT is not set"))
		os.Exit(1)
	}
	transcripts := fetch.NewTranscript(fetch.TranscriptInfo{
		Endpoint: transcriptEndpoint,
		ApiKey:   getParam("TRANSCRIPT_API_KEY", ""),
	})

	bucket := getParam("S3_BUCKET", "")
	if bucket == "" {
		logger.Error("missing required parameter", fmt.Errorf("S3_BUCKET is not set"))
		os.Exit(1)
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("unable to load aws config", err)
		os.Exit(1)
	}
	region := getParam("AWS_REGION", awsCfg.Region)
	store := storage.NewS3(s3.NewFromConfig(awsCfg), bucket, region)

	var metadata pipeline.MetadataFetcher
	if ytKey := getParam("YOUTUBE_API_KEY", ""); ytKey != "" {
		ytClient, err := youtube.NewService(ctx, option.WithAPIKey(ytKey))
		if err != nil {
			logger.Error("unable to create youtube service", err)
			os.Exit(1)
		}
		metadata = fetch.NewYoutube(ytClient)
	}

	var recorder pipeline.ResultRecorder
	var resultRepo storage.ResultRepository
	if pgHost := getParam("POSTGRES_HOST", ""); pgHost != "" {
		postgres, err := storage.NewPostgres(storage.PostgresInfo{
			Host:     pgHost,
			Port:     getParam("POSTGRES_PORT", "5432"),
			User:     getParam("POSTGRES_USER", "vidsum"),
			Password: getParam("POSTGRES_PASSWORD", "vidsum"),
			Database: getParam("POSTGRES_DB", "vidsum"),
		})
		if err != nil {
			logger.Error("unable to connect to postgres", err)
			os.Exit(1)
		}
		repo := storage.NewPostgresResultRepository(postgres)
		recorder, resultRepo = repo, repo
	}

	var vectors pipeline.VectorStore
	if weaviateHost := getParam("WEAVIATE_HOST", ""); weaviateHost != "" {
		weaviate, err := storage.NewWeaviate(weaviateHost, getParam("WEAVIATE_API_KEY", ""), openAIKey)
		if err != nil {
			logger.Error("unable to create weaviate client", err)
			os.Exit(1)
		}
		vectors = weaviate
	}

	stageTimeout, err := time.ParseDuration(getParam("STAGE_TIMEOUT", "30s"))
	if err != nil {
		logger.Error("unable to parse stage timeout", err)
		os.Exit(1)
	}
	bestEffort := getParam("STORAGE_BEST_EFFORT", "false") == "true"
	pipe := pipeline.NewPipeline(transcripts, metadata, summarizer, store, recorder, vectors, bestEffort, stageTimeout, logger)
	normalizer := normalize.NewNormalizer(logger)

	var subscriber handler.Subscriber
	if callbackURL := getParam("CALLBACK_URL", ""); callbackURL != "" {
		hub := websub.NewClient(getParam("HUB_URL", websub.DefaultHub), callbackURL, logger)
		subscriber = hub
		if channels := getParam("CHANNEL_IDS", ""); channels != "" {
			go func() {
				for _, channelID := range strings.Split(channels, ",") {
					channelID = strings.TrimSpace(channelID)
					if channelID == "" {
						continue
					}
					if err := hub.Subscribe(ctx, model.YoutubeChannelID(channelID), model.ModeSubscribe); err != nil {
						logger.Error("failed to subscribe channel", err, slog.String("channelid", channelID))
					}
				}
			}()
		}
	}

	if amqpURL := getParam("RABBITMQ_URL", ""); amqpURL != "" {
		conn, err := queue.NewAMQPConnection(amqpURL)
		if err != nil {
			logger.Error("unable to connect to broker", err)
			os.Exit(1)
		}
		listener := queue.NewListener(conn, getParam("RABBITMQ_QUEUE", "video-notifications"), normalizer, pipe, logger)
		go func() {
			if err := listener.Run(ctx); err != nil {
				logger.Error("queue listener failed", err)
			}
		}()
		logger.Info("queue listener started")
	}

	if mflxEndpoint := getParam("MINIFLUX_ENDPOINT", ""); mflxEndpoint != "" {
		fetchInterval, err := time.ParseDuration(getParam("FETCH_INTERVAL", "1m"))
		if err != nil {
			logger.Error("unable to parse fetch interval", err)
			os.Exit(1)
		}
		mflx := feed.NewMiniflux(feed.MinifluxInfo{
			Endpoint: mflxEndpoint,
			ApiKey:   getParam("MINIFLUX_APIKEY", ""),
		})
		go feed.NewPoller(mflx, pipe, fetchInterval, logger).Run(ctx)
		logger.Info("feed poller started")
	}

	port, err := strconv.Atoi(getParam("API_PORT", "8080"))
	if err != nil {
		logger.Error("invalid port", err)
		os.Exit(1)
	}
	apis := map[string]http.Handler{
		"webhook":       handler.NewWebhookAPI(normalizer, pipe, getParam("WEBHOOK_SECRET", ""), logger),
		"pubsub":        handler.NewPubSubAPI(normalizer, pipe, logger),
		"subscriptions": handler.NewSubscriptionAPI(subscriber, logger),
		"results":       handler.NewResultAPI(resultRepo, logger),
		"health":        handler.NewHealthAPI(pipe),
	}
	go http.ListenAndServe(fmt.Sprintf(":%d", port), handler.NewServer(apis, logger))
	logger.Info("http server started", slog.Int("port", port))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt)
	<-done

	logger.Info("service stopped")
}

func getParam(param, def string) string {
	if val, ok := os.LookupEnv(param); ok {
		return val
	}
	return def
}
