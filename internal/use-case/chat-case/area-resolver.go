package chat_service

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisAreaResolver reads the area -> managers mapping the platform
// user service maintains in redis sets ("area_managers:{area}").
type RedisAreaResolver struct {
	Redis *redis.Client
}

func NewRedisAreaResolver(rdb *redis.Client) AreaResolver {
	return &RedisAreaResolver{Redis: rdb}
}

func (r *RedisAreaResolver) ManagersForArea(ctx context.Context, area string) ([]string, error) {
	members, err := r.Redis.SMembers(ctx, "area_managers:"+area).Result()
	if err == redis.Nil {
		return nil, nil
	}
	return members, err
}
