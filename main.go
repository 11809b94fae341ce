package main

import (
	"context"
	"flag"
	"redsyspay/config"
	"redsyspay/internal"
	"redsyspay/services"
	_ "time/tzdata"
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

	var database services.Database
	switch conf.Store.Type {
	case config.StorePostgres:
		postgres, e := internal.NewPostgresClient(context.Background(), conf)
		if e != nil {
			logger.Error("postgres client", e)
			return
		}
		defer postgres.Close()
		database = postgres
		logger.Info("postgres client initialized")
	default:
		mongo, e := internal.NewMongoClient(conf)
		if e != nil {
			logger.Error("mongo client", e)
			return
		}
		database = mongo
		logger.Info("mongo client initialized")
	}

	payments := internal.NewPayments(conf)
	payments.SetLogger(internal.NewLogger("payments", conf.IsDebug, database))
	payments.SetDatabase(database)
	if err = payments.Validate(); err != nil {
		logger.Error("merchant configuration", err)
		return
	}

	if conf.Redis.Enabled {
		cache, e := internal.NewRedisCache(conf.Redis.Url)
		if e != nil {
			logger.Error("redis client", e)
			return
		}
		defer cache.Close()
		payments.SetNotificationCache(cache)
		logger.Info("redis notification cache initialized")
	}

	if conf.Kafka.Enabled {
		publisher := internal.NewKafkaPublisher(conf.Kafka.Brokers, conf.Kafka.Topic)
		defer publisher.Close()
		payments.SetEventPublisher(publisher)
		logger.Info("kafka publisher initialized")
	}

	server := internal.NewServer(conf)
	server.SetLogger(internal.NewLogger("server", conf.IsDebug, database))
	server.SetPaymentsService(payments)

	err = server.Start()
	if err != nil {
		logger.Error("server start", err)
		return
	}

}
