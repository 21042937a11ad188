package claimallocationengine

import (
	"log/slog"
	"time"

	httpadapter "codedrop/contexts/distribution/claim-allocation-engine/adapters/http"
	"codedrop/contexts/distribution/claim-allocation-engine/adapters/memory"
	application "codedrop/contexts/distribution/claim-allocation-engine/application"
	"codedrop/contexts/distribution/claim-allocation-engine/application/commands"
	"codedrop/contexts/distribution/claim-allocation-engine/application/queries"
	"codedrop/contexts/distribution/claim-allocation-engine/application/workers"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/services"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

// Module is the composition surface for the claim allocation engine.
// Runtime wiring consumes Handler and Workers; Store is exposed for tests/inspection.
type Module struct {
	Handler httpadapter.Handler
	Workers Workers
	Store   *memory.Store
}

type Workers struct {
	Sweeper         workers.ReservationSweeper
	OutboxRelay     workers.OutboxRelay
	ProfileConsumer workers.ClaimantProfileConsumer
}

type Dependencies struct {
	Pools             ports.PoolRepository
	Ledger            ports.QuotaLedger
	Codes             ports.CodePool
	SharedCodes       ports.SharedCodes
	Applications      ports.ApplicationRepository
	Claims            ports.ClaimRecordStore
	Claimants         ports.ClaimantDirectory
	Outbox            ports.OutboxRepository
	EventDedup        ports.EventDedupStore
	Publisher         ports.EventPublisher
	Subscriber        ports.EventSubscriber
	Clock             ports.Clock
	IDGenerator       ports.IDGenerator
	Observer          ports.Observer
	Passwords         services.PasswordVerifier
	PasswordCacheSize int
	ReservationTTL    time.Duration
	DefaultRiskScore  int
	SweepBatchSize    int
	RelayBatchSize    int
	ConsumerGroup     string
	EventDedupTTL     time.Duration
	Logger            *slog.Logger
}

// NewModule wires engine use cases and workers against explicit ports.
func NewModule(deps Dependencies) Module {
	passwords := deps.Passwords
	if passwords == nil {
		passwords = newPasswordVerifier(deps.PasswordCacheSize, deps.Logger)
	}

	handler := httpadapter.Handler{
		CreatePool: commands.CreatePoolUseCase{
			Pools:       deps.Pools,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		TryClaim: commands.TryClaimUseCase{
			Pools:            deps.Pools,
			Ledger:           deps.Ledger,
			Codes:            deps.Codes,
			SharedCodes:      deps.SharedCodes,
			Applications:     deps.Applications,
			Claims:           deps.Claims,
			Claimants:        deps.Claimants,
			Passwords:        passwords,
			Clock:            deps.Clock,
			IDGenerator:      deps.IDGenerator,
			ReservationTTL:   deps.ReservationTTL,
			DefaultRiskScore: deps.DefaultRiskScore,
			Observer:         deps.Observer,
			Logger:           deps.Logger,
		},
		ReviewApplication: commands.ReviewApplicationUseCase{
			Pools:        deps.Pools,
			Applications: deps.Applications,
			Clock:        deps.Clock,
			IDGenerator:  deps.IDGenerator,
			Observer:     deps.Observer,
			Logger:       deps.Logger,
		},
		GrowQuota: commands.GrowQuotaUseCase{
			Pools:       deps.Pools,
			Clock:       deps.Clock,
			IDGenerator: deps.IDGenerator,
			Logger:      deps.Logger,
		},
		SetPoolPassword: commands.SetPoolPasswordUseCase{
			Pools:  deps.Pools,
			Clock:  deps.Clock,
			Logger: deps.Logger,
		},
		UpsertClaimant: commands.UpsertClaimantProfileUseCase{
			Claimants: deps.Claimants,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
		GetPoolStatus: queries.GetPoolStatusUseCase{
			Pools:        deps.Pools,
			Codes:        deps.Codes,
			Applications: deps.Applications,
			Clock:        deps.Clock,
			Logger:       deps.Logger,
		},
		ListClaims: queries.ListClaimsUseCase{
			Pools:  deps.Pools,
			Claims: deps.Claims,
			Logger: deps.Logger,
		},
		ListClaimantClaims: queries.ListClaimantClaimsUseCase{
			Claims: deps.Claims,
			Logger: deps.Logger,
		},
		ListApplications: queries.ListApplicationsUseCase{
			Pools:        deps.Pools,
			Applications: deps.Applications,
			Logger:       deps.Logger,
		},
		Logger: deps.Logger,
	}

	return Module{
		Handler: handler,
		Workers: Workers{
			Sweeper: workers.ReservationSweeper{
				Ledger:    deps.Ledger,
				Clock:     deps.Clock,
				BatchSize: deps.SweepBatchSize,
				Observer:  deps.Observer,
				Logger:    deps.Logger,
			},
			OutboxRelay: workers.OutboxRelay{
				Outbox:    deps.Outbox,
				Publisher: deps.Publisher,
				Clock:     deps.Clock,
				BatchSize: deps.RelayBatchSize,
				Logger:    deps.Logger,
			},
			ProfileConsumer: workers.ClaimantProfileConsumer{
				Subscriber:    deps.Subscriber,
				Claimants:     deps.Claimants,
				Dedup:         deps.EventDedup,
				Clock:         deps.Clock,
				ConsumerGroup: deps.ConsumerGroup,
				DedupTTL:      deps.EventDedupTTL,
				Logger:        deps.Logger,
			},
		},
	}
}

// NewInMemoryModule wires the engine against the in-memory adapter.
// Publisher and Subscriber stay nil; callers attach a bus when they run workers.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore(logger)
	module := NewModule(Dependencies{
		Pools:            store,
		Ledger:           store,
		Codes:            store,
		SharedCodes:      store,
		Applications:     store,
		Claims:           store,
		Claimants:        store,
		Outbox:           store,
		EventDedup:       store,
		Clock:            store,
		IDGenerator:      store,
		ReservationTTL:   commands.DefaultReservationTTL,
		DefaultRiskScore: 50,
		Logger:           logger,
	})
	module.Store = store
	return module
}

func newPasswordVerifier(size int, logger *slog.Logger) services.PasswordVerifier {
	cached, err := commands.NewCachedPasswordVerifier(services.Argon2Verifier{}, size)
	if err != nil {
		application.ResolveLogger(logger).Warn("password cache disabled",
			"event", "claim_engine_password_cache_disabled",
			"module", application.ModuleName,
			"layer", "platform",
			"error", err.Error(),
		)
		return services.Argon2Verifier{}
	}
	return cached
}
