package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"paylink/config"
	"paylink/internal"
	"paylink/services"
)

func main() {

	logger := internal.NewLogger("internal", false, nil)

	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	logger.Info("using config file: " + *configPath)
	conf, err := config.GetConfig(*configPath)
	if err != nil {
		logger.Error("boot", err)
		return
	}

	newLogger := func(category string, database services.Database) *internal.Logger {
		l := internal.NewLogger(category, conf.IsDebug, database)
		l.SetOutput(os.Stdout, conf.Log.Format)
		if !conf.IsDebug {
			l.SetLevel(conf.Log.Level)
		}
		return l
	}

	var database services.Database
	if conf.Mongo.Enabled {
		mongo, err := internal.NewMongoClient(context.Background(), conf)
		if err != nil {
			logger.Error("mongo client", err)
			return
		}
		defer func() {
			_ = mongo.Close(context.Background())
		}()
		database = mongo
		logger.Info("mongo client initialized")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	payments := internal.NewPayments(conf.Gateway())
	payments.SetLogger(newLogger("payments", database))
	payments.SetDatabase(database)
	payments.SetMetrics(internal.NewMetrics("redsys", registry))

	if conf.Redis.Enabled {
		ttl, err := time.ParseDuration(conf.Redis.ReplayTTL)
		if err != nil {
			logger.Error("redis replay ttl", err)
			return
		}
		client := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		defer func() {
			_ = client.Close()
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = client.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Error("redis ping", err)
			return
		}
		payments.SetReplayGuard(internal.NewRedisReplayGuard(client, ttl))
		logger.Info("redis replay guard initialized")
	}

	server := internal.NewServer(conf)
	server.SetLogger(newLogger("server", database))
	server.SetPaymentsService(payments)
	server.SetGatherer(registry)

	err = server.Start()
	if err != nil {
		logger.Error("server start", err)
		return
	}

}
