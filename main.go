package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"calcsync/src/cache"
	"calcsync/src/database"
	"calcsync/src/model"
	"calcsync/src/notify"
	"calcsync/src/repository"
	"calcsync/src/server"
	"calcsync/src/store"
	"calcsync/src/watcher"
)

var (
	APP_NAME         = os.Getenv("APP_NAME")
	SESSION_USERNAME = os.Getenv("SESSION_USERNAME")
)

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger()
	defer handlePanic()

	ctx := context.Background()

	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	hub := notify.NewHub()

	var localCache cache.Store
	cacheConfig := cache.GetConfig()
	if cacheConfig.Path == "" {
		localCache = cache.NewMemory(hub)
	} else {
		sqliteCache, err := cache.OpenSQLite(cacheConfig.Path, hub)
		if err != nil {
			logger.WithError(err).Fatal("Failed to open local cache")
		}
		localCache = sqliteCache
	}

	var inputsRepo repository.CalculatorInputsRepository
	var users *repository.GormUserRepository
	var apiKeys *repository.GormUserAPIKeyRepository
	if database.MainDB != nil {
		inputsRepo = repository.NewCalculatorInputsRepository()
		users = repository.NewUserRepository()
		apiKeys = repository.NewUserAPIKeyRepository()
	}

	// A preset session makes the agent sync for that user from startup;
	// otherwise the session activates on login and the store runs
	// local-only until then.
	var sessionUser *model.User
	if SESSION_USERNAME != "" && users != nil {
		user, err := users.GetByUsername(ctx, SESSION_USERNAME)
		if err != nil {
			logger.WithError(err).Fatal("Failed to resolve session user")
		}
		if user == nil {
			logger.WithField("username", SESSION_USERNAME).Fatal("Session user not found")
		}
		sessionUser = user
	}

	st := store.New(localCache, inputsRepo, sessionUser)
	if err := st.Load(ctx); err != nil {
		logger.WithError(err).Error("Initial hydration failed")
	}

	listener, err := watcher.NewListener(st, hub, nil, watcher.GetConfig())
	if err != nil {
		logger.WithError(err).Fatal("Failed to build listener")
	}
	listener.Start()
	defer listener.Close()

	server.StartServer(server.GetConfig().Port, server.Dependencies{
		Store:   st,
		Hub:     hub,
		Users:   users,
		APIKeys: apiKeys,
	})
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
