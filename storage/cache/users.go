package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const UsersPostsCountRedisKey = "users_posts_count"

// Users caches per-author post counts so profile and detail views can
// skip the COUNT query while the entry is warm. The statistics task
// refreshes it periodically; post creation bumps it in place.
type Users struct {
	redisClient *redis.Client
	expiration  time.Duration
}

func NewUsers(redisClient *redis.Client, expiration time.Duration) *Users {
	return &Users{
		redisClient: redisClient,
		expiration:  expiration,
	}
}

func (c *Users) GetPostsCount(userID uint) (int64, bool) {
	count, err := c.redisClient.HGet(
		context.Background(),
		UsersPostsCountRedisKey,
		c.field(userID),
	).Int64()
	if err != nil {
		return 0, false
	}
	return count, true
}

func (c *Users) SetPostsCount(userID uint, count int64) {
	ctx := context.Background()
	field := c.field(userID)
	c.redisClient.HSet(ctx, UsersPostsCountRedisKey, field, count)
	c.redisClient.HExpire(ctx, UsersPostsCountRedisKey, c.expiration, field)
}

// AddPost bumps the author's counter if it is already cached. A cold
// entry stays cold until the next statistics refresh.
func (c *Users) AddPost(userID uint) {
	ctx := context.Background()
	field := c.field(userID)
	exists, err := c.redisClient.HExists(ctx, UsersPostsCountRedisKey, field).Result()
	if err != nil || !exists {
		return
	}
	c.redisClient.HIncrBy(ctx, UsersPostsCountRedisKey, field, 1)
	c.redisClient.HExpire(ctx, UsersPostsCountRedisKey, c.expiration, field)
}

func (c *Users) DeleteUser(userID uint) {
	c.redisClient.HDel(context.Background(), UsersPostsCountRedisKey, c.field(userID))
}

func (c *Users) field(userID uint) string {
	return fmt.Sprintf("%d", userID)
}
