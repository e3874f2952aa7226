package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	nsq "github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/shandysiswandi/adminotp/internal/adminotp/inbound"
	"github.com/shandysiswandi/adminotp/internal/pkg/clock"
	"github.com/shandysiswandi/adminotp/internal/pkg/config"
	"github.com/shandysiswandi/adminotp/internal/pkg/goroutine"
	"github.com/shandysiswandi/adminotp/internal/pkg/hash"
	"github.com/shandysiswandi/adminotp/internal/pkg/instrument"
	"github.com/shandysiswandi/adminotp/internal/pkg/jwt"
	"github.com/shandysiswandi/adminotp/internal/pkg/messaging"
	"github.com/shandysiswandi/adminotp/internal/pkg/router"
	"github.com/shandysiswandi/adminotp/internal/pkg/session"
	"github.com/shandysiswandi/adminotp/internal/pkg/uid"
	"github.com/shandysiswandi/adminotp/internal/pkg/validator"
	"google.golang.org/api/option"
)

const pingTimeout = 5 * time.Second

// fatal logs a startup failure and exits. Startup has no caller to return to.
func fatal(msg string, err error, args ...any) {
	slog.Error(msg, append(args, "error", err)...)
	os.Exit(1)
}

func (a *App) ping(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		fatal("failed to reach "+name, err)
	}
}

// configPath honors CONFIG_PATH, then falls back to the container path or,
// with LOCAL=true, the repository copy.
func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	if os.Getenv("LOCAL") == "true" {
		return "./config/config.yaml"
	}
	return "/config/config.yaml"
}

func (a *App) initConfig() {
	cfg, err := config.NewViper(configPath())
	if err != nil {
		fatal("failed to init config", err)
	}

	if tz := strings.TrimSpace(cfg.GetString("app.tz")); tz != "" {
		loc, lerr := time.LoadLocation(tz)
		if lerr != nil {
			fatal("invalid app.tz", lerr, "tz", tz)
		}
		time.Local = loc
	}

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		LogLevel:         a.config.GetString("instrument.log_level"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		fatal("failed to init instrumentation", err)
	}

	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	a.bcrypt = hash.NewBcrypt(a.config.GetInt("hash.bcrypt.cost"), a.config.GetString("hash.bcrypt.pepper"))

	v, err := validator.NewV10Validator()
	if err != nil {
		fatal("failed to init validator", err)
	}
	a.validator = v
}

func (a *App) initJWT() {
	tokens, err := jwt.NewHS512(jwt.Config{
		Secret:     []byte(a.config.GetString("jwt.secret")),
		Issuer:     a.config.GetString("jwt.issuer"),
		Audiences:  a.config.GetArray("jwt.audiences"),
		TTLMinutes: a.config.GetMinute("jwt.ttl_minutes"),
		Clock:      a.clock,
		UUID:       a.uuid,
	})
	if err != nil {
		fatal("failed to init jwt", err)
	}

	a.jwt = tokens
}

func (a *App) initDatabase() {
	poolCfg, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		fatal("failed to parse database.url", err)
	}

	poolCfg.MaxConns = a.config.GetInt32("database.pool.max_conns")
	poolCfg.MinConns = a.config.GetInt32("database.pool.min_conns")
	poolCfg.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	poolCfg.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	poolCfg.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, poolCfg)
	if err != nil {
		fatal("failed to create database pool", err)
	}
	a.ping("database", pool.Ping)

	a.dbConn = pool
}

func (a *App) initSessionStore() {
	ttl := a.config.GetMinute("session.ttl_minutes")

	switch driver := strings.TrimSpace(a.config.GetString("session.driver")); driver {
	case session.DriverMemory:
		a.sessions = session.NewMemory(ttl, a.clock)

	case session.DriverRedis, "":
		opt, err := redis.ParseURL(a.config.GetString("redis.url"))
		if err != nil {
			fatal("failed to parse redis.url", err)
		}

		rdb := redis.NewClient(opt)
		a.ping("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })

		a.cacheConn = rdb
		a.sessions = session.NewRedis(rdb, ttl)

	default:
		fatal("unknown session driver", session.ErrUnknownDriver, "driver", driver)
	}
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")

	client, err := messaging.NewFromDriver(a.ctx, driver, a.messagingOptions())
	if err != nil {
		fatal("failed to init messaging", err, "driver", driver)
	}

	a.messaging = client
}

func (a *App) messagingOptions() messaging.FactoryOptions {
	const prefix = "messaging."
	get := func(key string) string { return a.config.GetString(prefix + key) }
	secs := func(key string) time.Duration { return a.config.GetSecond(prefix + key) }

	nsqCfg := nsq.NewConfig()
	nsqCfg.DialTimeout = secs("nsq.producer_config.dial_timeout_seconds")
	nsqCfg.ReadTimeout = secs("nsq.producer_config.read_timeout_seconds")
	nsqCfg.WriteTimeout = secs("nsq.producer_config.write_timeout_seconds")

	return messaging.FactoryOptions{
		NATS: messaging.NATSConfig{
			URL: get("nats.url"),
			Options: []nats.Option{
				nats.Name(get("nats.name")),
				nats.MaxReconnects(a.config.GetInt(prefix + "nats.max_reconnects")),
				nats.Timeout(secs("nats.timeout_seconds")),
				nats.ReconnectWait(secs("nats.reconnect_wait_seconds")),
				nats.PingInterval(secs("nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt(prefix + "nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool(prefix + "nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers:      a.config.GetArray(prefix + "kafka.brokers"),
			Dialer:       &kafka.Dialer{ClientID: get("kafka.client_id"), Timeout: secs("kafka.dial_timeout_seconds")},
			BatchTimeout: a.config.GetMillisecond(prefix + "kafka.batch_timeout_ms"),
		},
		NSQ: messaging.NSQConfig{
			ProducerAddr:   get("nsq.producer_addr"),
			ProducerConfig: nsqCfg,
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     get("pubsub.project_id"),
			ClientOptions: a.pubsubClientOptions(),
		},
	}
}

func (a *App) pubsubClientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if file := strings.TrimSpace(a.config.GetString("messaging.pubsub.credentials_file")); file != "" {
		opts = append(opts, option.WithCredentialsFile(file))
	}
	if endpoint := strings.TrimSpace(a.config.GetString("messaging.pubsub.endpoint")); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}
	return opts
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:      a.config,
		UUID:        a.uuid,
		Instrument:  a.ins,
		RestartPath: inbound.PathLogin,
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   a.config.GetArray("app.server.cors"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Authorization", "X-Correlation-ID", "X-Request-ID"},
		ExposedHeaders:   []string{"Location", "X-Correlation-ID"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           handler,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

// initClosers lists resources in release order.
func (a *App) initClosers() {
	a.closers = append(a.closers,
		closer{"instrument", a.ins.Shutdown},
		closer{"messaging", func(context.Context) error { return a.messaging.Close() }},
	)
	if a.cacheConn != nil {
		a.closers = append(a.closers, closer{"redis", func(context.Context) error { return a.cacheConn.Close() }})
	}
	a.closers = append(a.closers,
		closer{"database", func(context.Context) error { a.dbConn.Close(); return nil }},
		closer{"config", func(context.Context) error { return a.config.Close() }},
	)
}
