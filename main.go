package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/crollins/chorus/activities"
	"github.com/crollins/chorus/controllers"
	"github.com/crollins/chorus/dedupe"
	"github.com/crollins/chorus/dispatch"
	"github.com/crollins/chorus/fetch"
	"github.com/crollins/chorus/keystore"
	mware "github.com/crollins/chorus/middleware"
	"github.com/crollins/chorus/notify"
	"github.com/crollins/chorus/storage"
	"github.com/crollins/chorus/storage/mem"
	"github.com/crollins/chorus/storage/postgres"
	"github.com/crollins/chorus/tasks"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the config file")
	addr := flag.String("addr", ":3000", "listen address")
	flag.Parse()

	log := logrus.New()

	conf, err := LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("could not load config")
	}

	keyID := fmt.Sprintf("%s://%s/actor#main-key", conf.Server.Scheme, conf.Server.Hostname)
	keys, err := keystore.NewStore(conf.Server.PrivateKey, conf.Server.PublicKey, keyID)
	if err != nil {
		log.WithError(err).Fatal("could not load keys")
	}

	var store storage.Store
	switch conf.Storage.Backend {
	case "postgres":
		pool, err := pgxpool.New(context.Background(), conf.Storage.PostgresDSN)
		if err != nil {
			log.WithError(err).Fatal("could not connect to postgres")
		}
		defer pool.Close()
		store = postgres.NewStore(pool)
	default:
		store = mem.NewStore()
	}

	var applied dedupe.Store = dedupe.NewMemStore()
	var notifier notify.Notifier = notify.NewMemNotifier()
	if conf.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: conf.Redis.Addr})
		applied = dedupe.NewRedisStore(client, time.Duration(conf.Redis.RetentionHours)*time.Hour)
		notifier = notify.NewRedisNotifier(client, conf.Redis.NotifyChannel, log.WithField("component", "notify"))
	}

	resolver := fetch.NewResolver(
		&http.Client{Timeout: time.Duration(conf.Federation.FetchTimeoutMS) * time.Millisecond},
		store,
	)

	queue := tasks.NewQueue(
		store,
		&http.Client{Timeout: time.Duration(conf.Delivery.TimeoutMS) * time.Millisecond},
		keys,
		conf.Delivery.MaxAttempts,
		time.Duration(conf.Delivery.BackoffMS)*time.Millisecond,
		log.WithField("component", "delivery"),
	)
	defer queue.Close()

	deps := &activities.Deps{
		Scheme:   conf.Server.Scheme,
		Domain:   conf.Server.Hostname,
		Store:    store,
		Notifier: notifier,
		Resolver: resolver,
		Queue:    queue,
	}

	dispatcher := dispatch.NewDispatcher(
		deps,
		applied,
		conf.Federation.LookupLimit,
		http.DefaultClient,
		log.WithField("component", "dispatch"),
	)

	inbox := controllers.NewInbox(dispatcher, log.WithField("component", "inbox"))
	community := controllers.NewCommunity(conf.Server.Scheme, conf.Server.Hostname, store, keys.PubKeyPem())

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(mware.ActivityPubHeaders)
		r.Post("/inbox", inbox.ServeHTTP)
		r.Get("/c/{name}", community.ServeHTTP)
		r.Get("/c/{name}/followers", community.Followers)
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	log.WithField("addr", *addr).Info("starting server")
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
