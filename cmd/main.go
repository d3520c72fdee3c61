package main

import (
	"context"
	"log"

	"github.com/pot-code/lingo-server/internal/course"
	infra "github.com/pot-code/lingo-server/internal/infrastructure"
	"github.com/pot-code/lingo-server/internal/infrastructure/driver"
	"github.com/pot-code/lingo-server/internal/infrastructure/logging"
	"github.com/pot-code/lingo-server/internal/infrastructure/uuid"
	"github.com/pot-code/lingo-server/internal/interfaces/rest"
	"github.com/pot-code/lingo-server/internal/learner"
	"github.com/pot-code/lingo-server/internal/migration"
	"go.uber.org/zap"
)

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)
	option, err := infra.InitConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		FilePath: option.Logging.FilePath,
		Level:    option.Logging.Level,
		AppID:    option.AppID,
		Env:      option.Env,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	defer logger.Sync()

	dbConn, err := driver.GetDBConnection(&driver.DBConfig{
		User:     option.Database.User,
		Password: option.Database.Password,
		MaxConn:  option.Database.MaxConn,
		Protocol: option.Database.Protocol,
		Driver:   option.Database.Driver,
		Host:     option.Database.Host,
		Port:     option.Database.Port,
		Query:    option.Database.Query,
		Schema:   option.Database.Schema,
	})
	if err != nil {
		logger.Fatal("Failed to create DB connection", zap.Error(err))
	}
	defer dbConn.Close(context.Background())
	logger.Debug("Create db connection instance",
		zap.String("db.driver", option.Database.Driver),
		zap.String("db.schema", option.Database.Schema),
		zap.String("db.host", option.Database.Host),
	)
	if option.Database.Driver == "sqlite3" {
		if err := migration.Apply(logging.SetLoggerInContext(context.Background(), logger), dbConn); err != nil {
			logger.Fatal("Failed to migrate sqlite database", zap.Error(err))
		}
	}

	kv := driver.NewRedisClient(option.KVStore.Host, option.KVStore.Port, option.KVStore.Password)
	defer kv.Close()

	UUIDGenerator := uuid.NewNanoIDGenerator(option.Security.IDLength)
	LearnerRepo := learner.NewLearnerRepository(dbConn)
	LearnerUseCase := learner.NewLearnerUseCase(LearnerRepo, UUIDGenerator,
		option.Security.MaxLoginAttempts,
		option.Security.RetryTimeout,
	)

	CourseRepo := course.NewCourseRepository(dbConn)
	CourseUseCase := course.NewCourseUseCase(CourseRepo, course.Options{
		DefaultHearts:      option.Progress.DefaultHearts,
		DefaultPoints:      option.Progress.DefaultPoints,
		PointsPerChallenge: option.Progress.PointsPerChallenge,
		DefaultUserName:    course.DefaultOptions.DefaultUserName,
		DefaultUserImage:   course.DefaultOptions.DefaultUserImage,
	})

	if err := rest.Serve(dbConn, kv, option, LearnerUseCase, CourseUseCase, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}
