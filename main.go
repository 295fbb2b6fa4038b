package main

import (
	"context"
	"flag"
	"os"

	"checkout/config"
	"checkout/internal"
	"checkout/services"
)

func main() {

	logger := internal.NewLogger("main", false, nil)

	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	logger.Info("using config file: " + *configPath)
	conf, err := config.GetConfig(*configPath)
	if err != nil {
		logger.Error("boot", err)
		return
	}

	var mongo services.Database
	if conf.Mongo.Enabled {
		mongo, err = internal.NewMongoClient(conf)
		if err != nil {
			logger.Error("mongo client", err)
			return
		}
		logger.Info("mongo client initialized")
	} else {
		mongo = internal.NewMemoryStore()
		logger.Warn("mongo disabled, using in-memory store")
	}

	// A payment service must never run with partial credentials:
	// any secret that fails to load aborts the boot.
	secrets, err := internal.LoadSecrets(context.Background(), internal.EnvSecretStore{})
	if err != nil {
		logger.Error("load secrets", err)
		os.Exit(1)
	}
	logger.Info("secrets loaded")

	checkout := internal.NewCheckout(conf, secrets)
	checkout.SetLogger(internal.NewLogger("checkout", conf.IsDebug, mongo))
	checkout.SetDatabase(mongo)

	server := internal.NewServer(conf)
	server.SetLogger(internal.NewLogger("server", conf.IsDebug, mongo))
	server.SetCheckoutService(checkout)

	err = server.Start()
	if err != nil {
		logger.Error("server start", err)
		return
	}

}
