package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/acme/lead-dialer/internal/config"
	"github.com/acme/lead-dialer/internal/dialer"
	"github.com/acme/lead-dialer/internal/infra/db"
	"github.com/acme/lead-dialer/internal/infra/redis"
	"github.com/acme/lead-dialer/internal/prefs"
	"github.com/acme/lead-dialer/internal/queue"
	"github.com/acme/lead-dialer/internal/repository"
	pgrepo "github.com/acme/lead-dialer/internal/repository/postgres"
	scyllarepo "github.com/acme/lead-dialer/internal/repository/scylla"
	"github.com/acme/lead-dialer/internal/telephony"
	telephonyMock "github.com/acme/lead-dialer/internal/telephony/mock"
	"github.com/acme/lead-dialer/internal/token"
	"github.com/acme/lead-dialer/pkg/logger"
)

// Container wires together shared infrastructure dependencies.
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	Postgres *db.Postgres
	Scylla   *db.Scylla
	Redis    *redis.Client
	Kafka    *queue.Kafka

	// lazily initialised components
	components struct {
		once         sync.Once
		repositories *repositories
		publishers   *publishers
		sessions     *dialer.Manager
		preferences  *prefs.Store
	}
}

type repositories struct {
	Leads    repository.LeadDirectory
	CallLogs repository.CallLogStore
}

type publishers struct {
	CallLog *queue.CallLogPublisher
}

// Build constructs a container for the given configuration path.
func Build(ctx context.Context, configPath string) (*Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	lg, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, err
	}

	pg, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("bootstrap postgres: %w", err)
	}

	scylla, err := db.NewScylla(cfg.Scylla)
	if err != nil {
		return nil, fmt.Errorf("bootstrap scylla: %w", err)
	}

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("bootstrap redis: %w", err)
	}

	kafka, err := queue.NewKafka(cfg.Kafka)
	if err != nil {
		return nil, fmt.Errorf("bootstrap kafka: %w", err)
	}

	return &Container{
		Config:   cfg,
		Logger:   lg,
		Postgres: pg,
		Scylla:   scylla,
		Redis:    redisClient,
		Kafka:    kafka,
	}, nil
}

func (c *Container) initComponents() {
	c.components.once.Do(func() {
		repos := &repositories{
			Leads:    pgrepo.NewLeadRepository(c.Postgres.DB()),
			CallLogs: scyllarepo.NewCallLogStore(c.Scylla.Session()),
		}

		pubs := &publishers{
			CallLog: queue.NewCallLogPublisher(c.Kafka, c.Config.Kafka.CallLogTopic),
		}

		settings := dialer.Settings{
			ReadyTimeout:      c.Config.Dialer.ReadyTimeout,
			ReinitSettle:      c.Config.Dialer.ReinitSettle,
			ConnectBackoff:    c.Config.Dialer.ConnectBackoff,
			MaxInitAttempts:   c.Config.Dialer.MaxInitAttempts,
			MaxConnectRetries: c.Config.Dialer.MaxConnectRetries,
			TickInterval:      c.Config.Dialer.TickInterval,
		}

		c.components.repositories = repos
		c.components.publishers = pubs
		c.components.preferences = prefs.NewStore(c.Redis.Inner())
		c.components.sessions = dialer.NewManager(
			c.Logger.Named("dialer"),
			c.telephonyFactory(),
			pubs.CallLog,
			token.NewClient(c.Config.Token),
			repos.Leads,
			settings,
		)
	})
}

func (c *Container) telephonyFactory() telephony.Factory {
	// The simulated client stands in until a real telephony integration is
	// configured.
	return telephonyMock.NewFactory()
}

// Repositories exposes initialized repositories.
func (c *Container) Repositories() *repositories {
	c.initComponents()
	return c.components.repositories
}

// Publishers exposes Kafka publishers.
func (c *Container) Publishers() *publishers {
	c.initComponents()
	return c.components.publishers
}

// Sessions exposes the dialer session manager.
func (c *Container) Sessions() *dialer.Manager {
	c.initComponents()
	return c.components.sessions
}

// Preferences exposes the user preference store.
func (c *Container) Preferences() *prefs.Store {
	c.initComponents()
	return c.components.preferences
}

// Close releases all held resources.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.components.sessions != nil {
		c.components.sessions.Shutdown(ctx)
	}
	if c.components.publishers != nil && c.components.publishers.CallLog != nil {
		if err := c.components.publishers.CallLog.Close(); err != nil {
			errs = append(errs, fmt.Errorf("call log publisher close: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if c.Scylla != nil {
		if err := c.Scylla.Close(); err != nil {
			errs = append(errs, fmt.Errorf("scylla close: %w", err))
		}
	}
	if c.Postgres != nil {
		if err := c.Postgres.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres close: %w", err))
		}
	}
	if c.Logger != nil {
		c.Logger.Sync()
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// EnsureTopics ensures required Kafka topics exist.
func (c *Container) EnsureTopics(ctx context.Context) error {
	return c.Kafka.EnsureTopics(ctx, []string{c.Config.Kafka.CallLogTopic}, 12, 1)
}
