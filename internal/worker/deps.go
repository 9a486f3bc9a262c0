package worker

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"reel/internal/pkg/logger"
	"reel/internal/ports"
)

type Deps struct {
	Pool      *pgxpool.Pool
	RDB       *redis.Client
	Store     ports.ObjectStore
	QueueName string
	Log       *logger.Logger
}
