package usecase

import (
	"github.com/secmon-lab/kottos/pkg/domain/interfaces"
	"github.com/secmon-lab/kottos/pkg/domain/model"
)

type UseCases struct {
	repo          interfaces.Repository
	engine        EngineConfig
	org           *model.OrgHierarchy
	defaultRoutes *DefaultRoutes
	notifier      interfaces.Notifier

	Routing    *RoutingUseCase
	Task       *TaskUseCase
	Access     *AccessUseCase
	Analytics  *AnalyticsUseCase
	Reconciles []*ReconcileUseCase
	Auth       AuthUseCaseInterface
}

type Option func(*UseCases)

func WithEngineConfig(cfg EngineConfig) Option {
	return func(uc *UseCases) {
		uc.engine = cfg
	}
}

func WithOrg(org *model.OrgHierarchy) Option {
	return func(uc *UseCases) {
		uc.org = org
	}
}

func WithDefaultRoutes(routes *DefaultRoutes) Option {
	return func(uc *UseCases) {
		uc.defaultRoutes = routes
	}
}

func WithNotifier(notifier interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

func WithReconciles(reconciles ...*ReconcileUseCase) Option {
	return func(uc *UseCases) {
		uc.Reconciles = append(uc.Reconciles, reconciles...)
	}
}

func WithAuth(auth AuthUseCaseInterface) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:   repo,
		engine: DefaultEngineConfig(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Routing = NewRoutingUseCase(repo, uc.engine, uc.defaultRoutes, uc.notifier)
	uc.Access = NewAccessUseCase(uc.org)
	uc.Task = NewTaskUseCase(repo, uc.Access, uc.notifier)
	uc.Analytics = NewAnalyticsUseCase(repo, uc.Access)

	return uc
}
