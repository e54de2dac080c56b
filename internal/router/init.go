package router

import (
	"github.com/studyhub-kr/studyhub-api/internal/application"
	"github.com/studyhub-kr/studyhub-api/internal/container"
	pginfra "github.com/studyhub-kr/studyhub-api/internal/infrastructure/postgres"
	handlers "github.com/studyhub-kr/studyhub-api/internal/interface/http"
	"github.com/studyhub-kr/studyhub-api/internal/router/modules"
)

type AccountModuleDeps struct {
	Service  *application.AccountService
	Handler  *handlers.AccountHandler
	Settings *handlers.SettingsHandler
}

func buildAccountDeps() AccountModuleDeps {
	pool := container.GetPGPool()
	accounts := pginfra.NewAccountRepository(pool)
	tags := pginfra.NewTagRepository(pool)
	zones := pginfra.NewZoneRepository(pool)

	sessions := application.NewSessionManager(
		container.GetJWT(),
		container.GetRedis(),
		container.GetLogger(),
	)

	cfg := container.GetConfig()
	var pub application.Publisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}

	service := application.NewAccountService(
		accounts,
		tags,
		zones,
		sessions,
		pub,
		container.GetLogger(),
		cfg,
		container.GetES(),
		cfg.ESAccountsIndex,
		container.GetGCS(),
		cfg.GCSBucket,
	)

	return AccountModuleDeps{
		Service:  service,
		Handler:  handlers.NewAccountHandler(service, container.GetLogger(), cfg),
		Settings: handlers.NewSettingsHandler(service, container.GetLogger(), cfg),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildAccountDeps()
	r.Add(modules.NewAccountModule(deps.Handler, container.GetJWT()))
	r.Add(modules.NewSettingsModule(deps.Settings, container.GetJWT()))
}
