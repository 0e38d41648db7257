package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/jobscout/internal/logger"
	"github.com/redis/go-redis/v9"
)

// ConnectOptions defines the Redis connection and its retry behavior.
// The server uses one client for both the saved-jobs store and the search cache.
type ConnectOptions struct {
	URL            string        // Optional redis:// URL, takes precedence over Addr/User/Password/RedisDB
	Addr           string        // Redis address (ex: "localhost:6379")
	User           string        // Optional username
	Password       string        // Optional password
	RedisDB        int           // Redis DB number
	DialTimeout    time.Duration // Redis dial timeout
	ReadTimeout    time.Duration // Redis read timeout
	WriteTimeout   time.Duration // Redis write timeout
	PoolSize       int           // Redis connection pool size
	ConnectTimeout time.Duration // Budget for all startup pings together (ex: 30s)
	RetryInterval  time.Duration // First pause between pings, doubled after each failure
	MaxWait        time.Duration // Longest pause between pings
	PingTimeout    time.Duration // Deadline of a single ping
	WarnThreshold  int           // Failed pings logged as warnings before escalating to errors
}

// Validate reports every retry setting that cannot drive the startup loop.
func (o ConnectOptions) Validate() error {
	var errs []error
	positive := func(name string, d time.Duration) {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %v", name, d))
		}
	}
	positive("ConnectTimeout", o.ConnectTimeout)
	positive("RetryInterval", o.RetryInterval)
	positive("MaxWait", o.MaxWait)
	positive("PingTimeout", o.PingTimeout)
	if o.WarnThreshold < 0 {
		errs = append(errs, fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold))
	}
	return errors.Join(errs...)
}

// New opens a Redis client and blocks until it answers a ping or
// ConnectTimeout runs out. The saved-jobs store and search cache both
// depend on it, so startup fails when Redis never shows up.
func New(opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	log = log.Named("redis")
	if err := opts.Validate(); err != nil {
		log.Error("invalid redis retry settings", logger.Error(err))
		return nil, err
	}

	clientOpts, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(clientOpts)
	if err := waitReady(client, opts, log); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// buildOptions turns ConnectOptions into go-redis options.
// Timeouts and pool size always come from opts, even when a URL is given.
func buildOptions(opts ConnectOptions) (*redis.Options, error) {
	var clientOpts *redis.Options

	if opts.URL != "" {
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		clientOpts = parsed
	} else {
		if opts.Addr == "" {
			return nil, fmt.Errorf("redis address is required")
		}
		clientOpts = &redis.Options{
			Addr:     opts.Addr,
			Username: opts.User,
			Password: opts.Password,
			DB:       opts.RedisDB,
		}
	}

	clientOpts.DialTimeout = opts.DialTimeout
	clientOpts.ReadTimeout = opts.ReadTimeout
	clientOpts.WriteTimeout = opts.WriteTimeout
	if opts.PoolSize > 0 {
		clientOpts.PoolSize = opts.PoolSize
	}

	return clientOpts, nil
}

// backoff doubles the pause after every failed ping, capped at max.
type backoff struct {
	next, max time.Duration
}

func (b *backoff) pause() time.Duration {
	d := b.next
	b.next = min(b.next*2, b.max)
	return d
}

func waitReady(client *redis.Client, opts ConnectOptions, log logger.Logger) error {
	addr := client.Options().Addr
	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	log.Info("waiting for redis",
		logger.String("addr", addr),
		logger.Duration("budget", opts.ConnectTimeout))

	start := time.Now()
	wait := backoff{next: opts.RetryInterval, max: opts.MaxWait}

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			fields := []logger.Field{logger.String("addr", addr), logger.Int("attempts", attempt)}
			if attempt > 1 {
				log.Warn("redis reachable after failed pings", append(fields, logger.Duration("elapsed", time.Since(start)))...)
			} else {
				log.Info("redis reachable", fields...)
			}
			return nil
		}

		pause := wait.pause()
		select {
		case <-ctx.Done():
			log.Error("redis never became reachable",
				logger.String("addr", addr),
				logger.Int("attempts", attempt),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts (budget %v): %w",
				addr, attempt, opts.ConnectTimeout, err)
		case <-time.After(pause):
		}

		reportFailedPing(ctx, log, addr, attempt, pause, opts.WarnThreshold, err)
	}
}

// reportFailedPing logs quietly for the first few failures and louder once
// the threshold is passed or the budget is nearly spent.
func reportFailedPing(ctx context.Context, log logger.Logger, addr string, attempt int, pause time.Duration, warnThreshold int, err error) {
	fields := []logger.Field{
		logger.String("addr", addr),
		logger.Int("attempt", attempt),
		logger.Duration("paused", pause),
		logger.Error(err),
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < 10*time.Second {
		log.Error("redis still down, startup budget almost spent",
			append(fields, logger.Duration("remaining", time.Until(deadline)))...)
		return
	}
	if attempt <= warnThreshold {
		log.Warn("redis ping failed, retrying", fields...)
		return
	}
	log.Error("redis ping keeps failing", fields...)
}
