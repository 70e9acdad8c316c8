package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"techfix-backend/configs"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"
)

// Keys for the public listing caches and the pub/sub channel shared by
// every instance of the service.
const (
	KeyServices      = "catalog:services"
	KeyTestimonials  = "catalog:testimonials"
	KeyStats         = "admin:stats"
	TicketsChannel   = "ticket_updates"
	counterKeyFormat = "counter:tickets:%s"
)

type CacheManager struct {
	redisClient *redis.Client
	localCache  *cache.Cache
	pubSub      *redis.PubSub
	updates     chan string
	ctx         context.Context
	mu          sync.RWMutex
}

var (
	instance *CacheManager
	once     sync.Once
)

func GetCacheManager() *CacheManager {
	once.Do(func() {
		instance = newManager(configs.AppConfig.RedisURL)
	})
	return instance
}

// NewLocal returns a manager backed only by the in-process cache.
// Used by tests and by deployments without Redis.
func NewLocal() *CacheManager {
	return &CacheManager{
		ctx:        context.Background(),
		localCache: cache.New(5*time.Minute, 10*time.Minute),
		updates:    make(chan string, 64),
	}
}

func newManager(redisURL string) *CacheManager {
	cm := NewLocal()

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{
			Addr: redisURL,
			DB:   0,
		}
	}

	cm.redisClient = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(cm.ctx, 5*time.Second)
	defer cancel()

	if err := cm.redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection failed, using local cache only: %v", err)
		cm.redisClient = nil
	} else {
		log.Println("Redis connection established successfully")

		cm.pubSub = cm.redisClient.Subscribe(cm.ctx, TicketsChannel)
		go cm.listenForUpdates()
	}

	return cm
}

func (cm *CacheManager) listenForUpdates() {
	if cm.pubSub == nil {
		return
	}

	ch := cm.pubSub.Channel()
	for msg := range ch {
		cm.handleUpdateMessage(msg.Payload)
	}
}

func (cm *CacheManager) handleUpdateMessage(payload string) {
	// New tickets invalidate the dashboard stats cache and feed the
	// websocket hub through the updates channel.
	cm.Delete(KeyStats)

	select {
	case cm.updates <- payload:
	default:
		// nobody is draining the feed; drop rather than block
	}
}

// Updates is the stream of ticket notification payloads, fed either by
// Redis pub/sub (multi-instance) or directly by PublishTicketUpdate.
func (cm *CacheManager) Updates() <-chan string {
	return cm.updates
}

func (cm *CacheManager) Set(key string, value interface{}, ttl time.Duration) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.localCache.Set(key, value, ttl)

	if cm.redisClient != nil {
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cm.ctx, 5*time.Second)
		defer cancel()

		return cm.redisClient.Set(ctx, key, data, ttl).Err()
	}

	return nil
}

func (cm *CacheManager) Get(key string, target interface{}) (bool, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if val, found := cm.localCache.Get(key); found {
		// entries backfilled from Redis are raw JSON already
		if raw, ok := val.([]byte); ok {
			return true, json.Unmarshal(raw, target)
		}
		data, err := json.Marshal(val)
		if err != nil {
			return false, err
		}
		return true, json.Unmarshal(data, target)
	}

	if cm.redisClient != nil {
		ctx, cancel := context.WithTimeout(cm.ctx, 5*time.Second)
		defer cancel()

		data, err := cm.redisClient.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return false, nil
		} else if err != nil {
			return false, err
		}

		cm.localCache.Set(key, data, 5*time.Minute)

		return true, json.Unmarshal(data, target)
	}

	return false, nil
}

func (cm *CacheManager) Delete(key string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.localCache.Delete(key)

	if cm.redisClient != nil {
		ctx, cancel := context.WithTimeout(cm.ctx, 5*time.Second)
		defer cancel()
		return cm.redisClient.Del(ctx, key).Err()
	}

	return nil
}

// Increment bumps a counter key, used for the daily ticket-submission
// counters shown on the admin dashboard.
func (cm *CacheManager) Increment(key string, value int64) (int64, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.redisClient != nil {
		ctx, cancel := context.WithTimeout(cm.ctx, 5*time.Second)
		defer cancel()
		return cm.redisClient.IncrBy(ctx, key, value).Result()
	}

	var current int64
	if val, found := cm.localCache.Get(key); found {
		current = val.(int64)
	}
	current += value
	cm.localCache.Set(key, current, cache.DefaultExpiration)
	return current, nil
}

// CountTicketToday bumps today's submission counter and returns it.
func (cm *CacheManager) CountTicketToday() (int64, error) {
	key := fmt.Sprintf(counterKeyFormat, time.Now().Format("2006-01-02"))
	return cm.Increment(key, 1)
}

// TicketsToday reads today's submission counter without bumping it.
func (cm *CacheManager) TicketsToday() int64 {
	key := fmt.Sprintf(counterKeyFormat, time.Now().Format("2006-01-02"))

	if cm.redisClient != nil {
		ctx, cancel := context.WithTimeout(cm.ctx, 5*time.Second)
		defer cancel()
		n, err := cm.redisClient.Get(ctx, key).Int64()
		if err != nil {
			return 0
		}
		return n
	}

	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if val, found := cm.localCache.Get(key); found {
		if n, ok := val.(int64); ok {
			return n
		}
	}
	return 0
}

// PublishTicketUpdate notifies every instance that a ticket changed.
// Without Redis the payload goes straight to the local updates channel.
func (cm *CacheManager) PublishTicketUpdate(action, reference string, ticketID uint) {
	update := map[string]interface{}{
		"action":    action,
		"reference": reference,
		"ticket_id": ticketID,
		"timestamp": time.Now().Unix(),
	}

	data, _ := json.Marshal(update)

	if cm.redisClient == nil {
		cm.handleUpdateMessage(string(data))
		return
	}

	ctx, cancel := context.WithTimeout(cm.ctx, 5*time.Second)
	defer cancel()

	cm.redisClient.Publish(ctx, TicketsChannel, data)
}

func (cm *CacheManager) IsAvailable() bool {
	return cm.redisClient != nil
}
