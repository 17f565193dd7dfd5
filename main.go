package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"yatube/events"
	"yatube/media"
	"yatube/monitoring"
	"yatube/server"
	"yatube/storage/cache"
	"yatube/storage/db"
	"yatube/tasks"
	"yatube/utils"
)

func newMediaStore() media.Store {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		log.Warn("MINIO_ENDPOINT not set, storing uploads in memory")
		return media.NewMemoryStore()
	}

	store, err := media.NewMinioStore(media.MinioConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		Bucket:    os.Getenv("MINIO_BUCKET"),
	})
	if err != nil {
		panic(err)
	}
	if err := store.EnsureBucket(context.Background()); err != nil {
		panic(err)
	}
	return store
}

func newPublisher() events.Publisher {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		log.Warn("KAFKA_BROKERS not set, activity events are discarded")
		return events.Discard{}
	}
	return events.NewKafkaPublisher(strings.Split(brokers, ","), events.TopicActivity)
}

func main() {
	log.SetLevel(log.WarnLevel)

	database, err := db.New(
		fmt.Sprintf(
			"user=%s password=%s dbname=%s sslmode=disable host=%s port=%s",
			os.Getenv("DB_USERNAME"),
			os.Getenv("DB_PASSWORD"),
			"yatube",
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
		),
	)
	if err != nil {
		panic(err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf(
			"%s:%s",
			os.Getenv("REDIS_HOST"),
			os.Getenv("REDIS_PORT"),
		),
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	usersCacheExpiration := utils.IntFromString(
		os.Getenv("USERS_CACHE_EXPIRATION_MINUTES"), 1080,
	)
	usersCache := cache.NewUsers(
		redisClient,
		time.Duration(usersCacheExpiration)*time.Minute,
	)
	pagesCache := cache.NewRedisPages(redisClient)

	mediaStore := newMediaStore()
	publisher := newPublisher()
	defer publisher.Close()

	monitoring.Register()

	s := server.NewServer(
		database,
		pagesCache,
		usersCache,
		mediaStore,
		publisher,
		server.Config{
			PageSize: utils.IntFromString(os.Getenv("PAGE_SIZE"), 10),
			IndexCacheTTL: time.Duration(
				utils.IntFromString(os.Getenv("INDEX_CACHE_SECONDS"), 20),
			) * time.Second,
			JWTSecret: []byte(os.Getenv("JWT_SECRET")),
		},
	)

	// Statistics updater
	go utils.Recoverer(math.MaxInt, "statistics", func() {
		statisticsInterval := utils.IntFromString(
			os.Getenv("STATISTICS_INTERVAL_MINUTES"), 15,
		)
		statisticsUpdater := tasks.NewStatisticsUpdater(
			database,
			usersCache,
			time.Duration(statisticsInterval)*time.Minute,
		)
		statisticsUpdater.Run()
	})

	s.Run(utils.IntFromString(os.Getenv("PORT"), 3333))
}
