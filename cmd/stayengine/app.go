package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"stayengine/internal/app/commands"
	"stayengine/internal/app/dto"
	availabilityapp "stayengine/internal/app/handlers/availability"
	bookingapp "stayengine/internal/app/handlers/booking"
	paymentsapp "stayengine/internal/app/handlers/payments"
	"stayengine/internal/app/middleware"
	"stayengine/internal/app/outbox"
	"stayengine/internal/app/policies"
	"stayengine/internal/app/principal"
	"stayengine/internal/app/queries"
	"stayengine/internal/app/schedule"
	domainbooking "stayengine/internal/domain/booking"
	domainlistings "stayengine/internal/domain/listings"
	"stayengine/internal/infra/broker/kafka"
	"stayengine/internal/infra/broker/rabbitmq"
	"stayengine/internal/infra/config"
	dbmongo "stayengine/internal/infra/db/mongo"
	ginserver "stayengine/internal/infra/http/gin"
	"stayengine/internal/infra/inbox"
	"stayengine/internal/infra/obs"
	infraoutbox "stayengine/internal/infra/outbox"
	"stayengine/internal/infra/pricing"
	"stayengine/internal/infra/storage/memory"
	"stayengine/internal/infra/validation"
)

type listingStore interface {
	domainlistings.Source
	memory.ListingSaver
}

type outboxStore interface {
	outbox.Outbox
	infraoutbox.Queue
}

type producer interface {
	infraoutbox.Producer
	Close() error
}

// stores groups the persistence adapters for one backend.
type stores struct {
	listings listingStore
	bookings domainbooking.Store
	guests   policies.GuestDirectory
	idem     middleware.IdempotencyStore
	outbox   outboxStore
	inbox    kafka.Inbox
	ready    func(ctx context.Context) error
	close    func(ctx context.Context) error
}

type application struct {
	cfg      config.Config
	logger   *slog.Logger
	stores   stores
	commands commands.Bus
	queries  queries.Bus
	handlers ginserver.Handlers
	health   obs.HealthHandlers
	worker   *infraoutbox.Worker
	producer producer
	sweeper  *schedule.Sweeper
	payments *kafka.Consumer
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger, now func() time.Time) (*application, error) {
	if now == nil {
		now = time.Now
	}
	st, err := newStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := loadListings(ctx, cfg, st.listings, logger); err != nil {
		_ = st.close(ctx)
		return nil, err
	}

	rates := domainbooking.Rates{ServiceFee: cfg.ServiceFeeRate, Tax: cfg.TaxRate}
	assembler := domainbooking.Assembler{Rates: rates}
	var pricingPort policies.PricingPort = memory.NewListingPricing(rates)
	if cfg.PricingURL != "" {
		pricingPort = pricing.NewHTTPClient(cfg.PricingURL, cfg.PricingTimeout, rates, logger)
	}
	encoder := outbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.MustRegister(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		Listings:  st.listings,
		Bookings:  st.bookings,
		Pricing:   pricingPort,
		Assembler: assembler,
		Outbox:    st.outbox,
		Encoder:   encoder,
		Now:       now,
		Logger:    logger,
	})
	commands.MustRegister(commandBus, bookingapp.TransitionBookingCommand{}.Key(), &bookingapp.TransitionBookingHandler{
		Bookings: st.bookings,
		Tracker:  domainbooking.NewActionTracker(now),
		Refund:   domainbooking.PolicyRefund,
		Outbox:   st.outbox,
		Encoder:  encoder,
		Now:      now,
		Logger:   logger,
	})
	commands.MustRegister(commandBus, paymentsapp.RecordPaymentCommand{}.Key(), &paymentsapp.RecordPaymentHandler{
		Bookings: st.bookings,
		Now:      now,
		Logger:   logger,
	})

	queryBus := queries.NewInMemoryBus()
	lists := &bookingapp.ListBookingsHandler{
		Bookings:        st.bookings,
		Listings:        st.listings,
		Guests:          st.guests,
		DefaultPageSize: cfg.DefaultPageSize,
		Logger:          logger,
	}
	queries.MustRegister(queryBus, bookingapp.QuoteQuery{}.Key(), &bookingapp.QuoteHandler{
		Listings:  st.listings,
		Bookings:  st.bookings,
		Pricing:   pricingPort,
		Assembler: assembler,
		Logger:    logger,
	})
	queries.MustRegister(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{
		Bookings: st.bookings,
		Listings: st.listings,
		Guests:   st.guests,
	})
	queries.MustRegister(queryBus, bookingapp.ListHostBookingsQuery{}.Key(), queries.HandlerFunc[bookingapp.ListHostBookingsQuery, dto.BookingPage](lists.HandleHost))
	queries.MustRegister(queryBus, bookingapp.ListGuestBookingsQuery{}.Key(), queries.HandlerFunc[bookingapp.ListGuestBookingsQuery, dto.BookingPage](lists.HandleGuest))
	queries.MustRegister(queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{
		Listings: st.listings,
		Bookings: st.bookings,
		Now:      now,
	})

	v := validation.New()
	authz := principal.Authorizer{}
	cmds := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Validation(v),
		middleware.Authorization(authz),
		middleware.Idempotency(st.idem, middleware.IdempotencyOptions{TTL: cfg.IdempotencyTTL, Now: now}),
		middleware.OutboxFlush(st.outbox, logger),
	)
	qs := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(v),
		middleware.QueryAuthorization(authz),
	)

	app := &application{
		cfg:      cfg,
		logger:   logger,
		stores:   st,
		commands: cmds,
		queries:  qs,
		handlers: ginserver.Handlers{
			Booking:      ginserver.BookingHandler{Commands: cmds, Queries: qs, Logger: logger},
			BookingList:  ginserver.BookingListHandler{Queries: qs, Logger: logger},
			Availability: ginserver.AvailabilityHandler{Queries: qs, Logger: logger},
			Payments:     ginserver.PaymentsHandler{Commands: cmds, Logger: logger},
		},
		health: obs.HealthHandlers{Ready: st.ready},
	}

	prod, err := newProducer(cfg, logger)
	if err != nil {
		_ = st.close(ctx)
		return nil, err
	}
	app.producer = prod
	app.worker = &infraoutbox.Worker{
		Queue:       st.outbox,
		Producer:    prod,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Now:         now,
		Logger:      logger,
	}

	if cfg.SchedulerEnabled {
		app.sweeper = &schedule.Sweeper{
			Bookings: st.bookings,
			Commands: cmds,
			Interval: cfg.ScheduleInterval,
			Now:      now,
			Logger:   logger,
		}
	}

	if cfg.Broker == config.BrokerKafka && cfg.KafkaPaymentsTopic != "" {
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, kafka.NewConfig("stayengine-payments"), &kafka.PaymentEventsHandler{
			Commands: cmds,
			Inbox:    st.inbox,
			Logger:   logger,
		})
		if err != nil {
			_ = prod.Close()
			_ = st.close(ctx)
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		consumer.RetryBackoff = cfg.RetryBackoff
		consumer.Logger = logger
		app.payments = consumer
	}
	return app, nil
}

func newStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	switch cfg.StoreBackend {
	case config.StoreMongo:
		return newMongoStores(ctx, cfg, logger)
	default:
		return stores{
			listings: memory.NewListingRepository(),
			bookings: memory.NewBookingRepository(),
			guests:   memory.NewGuestDirectory(nil),
			idem:     memory.NewIdempotencyStore(),
			outbox:   memory.NewOutbox(),
			inbox:    memory.NewInbox(),
			ready:    func(context.Context) error { return nil },
			close:    func(context.Context) error { return nil },
		}, nil
	}
}

func newMongoStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	client, err := dbmongo.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return stores{}, fmt.Errorf("mongo connect: %w", err)
	}
	fail := func(err error) (stores, error) {
		_ = client.Close(context.Background())
		return stores{}, err
	}
	bookings, err := dbmongo.NewBookingRepository(ctx, client.DB)
	if err != nil {
		return fail(fmt.Errorf("mongo bookings: %w", err))
	}
	idem, err := dbmongo.NewIdempotencyStore(ctx, client.DB)
	if err != nil {
		return fail(fmt.Errorf("mongo idempotency: %w", err))
	}
	box, err := infraoutbox.NewStore(ctx, client.DB)
	if err != nil {
		return fail(fmt.Errorf("mongo outbox: %w", err))
	}
	seen, err := inbox.NewStore(ctx, client.DB, cfg.KafkaGroupID)
	if err != nil {
		return fail(fmt.Errorf("mongo inbox: %w", err))
	}
	logger.Info("mongo store ready", "database", cfg.MongoDB)
	return stores{
		listings: dbmongo.NewListingRepository(client.DB),
		bookings: bookings,
		guests:   dbmongo.NewGuestDirectory(client.DB),
		idem:     idem,
		outbox:   box,
		inbox:    seen,
		ready:    client.Ping,
		close:    client.Close,
	}, nil
}

// loadListings seeds the listing store. A configured fixtures file that is
// missing is only a warning; the demo catalogue is used for the memory
// backend when nothing was loaded.
func loadListings(ctx context.Context, cfg config.Config, dst listingStore, logger *slog.Logger) error {
	if cfg.ListingsFixtures != "" {
		n, err := memory.LoadFixturesFile(ctx, dst, cfg.ListingsFixtures)
		switch {
		case err == nil:
			logger.Info("listing fixtures loaded", "path", cfg.ListingsFixtures, "count", n)
			return nil
		case errors.Is(err, fs.ErrNotExist):
			logger.Warn("listing fixtures file not found", "path", cfg.ListingsFixtures)
		default:
			return fmt.Errorf("listing fixtures: %w", err)
		}
	}
	if cfg.StoreBackend == config.StoreMongo {
		return nil
	}
	if err := memory.SeedDemo(ctx, dst); err != nil {
		return err
	}
	logger.Info("demo listings seeded")
	return nil
}

func newProducer(cfg config.Config, logger *slog.Logger) (producer, error) {
	switch cfg.Broker {
	case config.BrokerKafka:
		p, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig("stayengine-outbox"))
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		return p, nil
	case config.BrokerRabbitMQ:
		p, err := rabbitmq.NewProducer(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq producer: %w", err)
		}
		return p, nil
	default:
		return logProducer{logger: logger}, nil
	}
}

// logProducer stands in for a broker when BROKER=none so the outbox still
// drains.
type logProducer struct {
	logger *slog.Logger
}

func (p logProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	p.logger.DebugContext(ctx, "event published", "topic", topic, "key", key, "aggregate_type", headers["aggregate_type"], "bytes", len(payload))
	return nil
}

func (logProducer) Close() error { return nil }

// run starts the background loops and the HTTP server and blocks until ctx is
// cancelled or one of them fails.
func (a *application) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	start := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errs <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	start("outbox worker", a.worker.Run)
	if a.sweeper != nil {
		start("lifecycle scheduler", a.sweeper.Run)
	}
	if a.payments != nil {
		start("payment consumer", func(ctx context.Context) error {
			return a.payments.Run(ctx, []string{a.cfg.KafkaPaymentsTopic})
		})
	}

	server := ginserver.NewServer(a.cfg, obs.Middleware{Logger: a.logger}, a.health, a.handlers)
	start("http server", func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("http shutdown failed", "error", err)
			}
		}()
		a.logger.Info("HTTP server starting", "addr", a.cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	<-ctx.Done()
	wg.Wait()
	close(errs)
	var all []error
	for err := range errs {
		all = append(all, err)
	}
	return errors.Join(all...)
}

func (a *application) close(ctx context.Context) error {
	var errs []error
	if a.payments != nil {
		errs = append(errs, a.payments.Close())
	}
	if a.producer != nil {
		errs = append(errs, a.producer.Close())
	}
	errs = append(errs, a.stores.close(ctx))
	return errors.Join(errs...)
}
