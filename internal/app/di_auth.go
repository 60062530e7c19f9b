package app

import (
	"fmt"

	authHTTP "github.com/allisson/planner/internal/auth/http"
	authService "github.com/allisson/planner/internal/auth/service"
	authUseCase "github.com/allisson/planner/internal/auth/usecase"
	outboxUseCase "github.com/allisson/planner/internal/outbox/usecase"
)

// PasswordService returns the Argon2id password service.
func (c *Container) PasswordService() (authService.PasswordService, error) {
	var err error
	c.passwordServiceInit.Do(func() {
		c.passwordService, err = authService.NewPasswordService()
		if err != nil {
			c.initErrors["passwordService"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["passwordService"]; exists {
		return nil, storedErr
	}
	return c.passwordService, nil
}

// TokenService returns the session token service.
func (c *Container) TokenService() authService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = authService.NewTokenService()
	})
	return c.tokenService
}

// AuditSigner returns the audit log signer, or nil when AUDIT_SIGNING_KEY is unset.
func (c *Container) AuditSigner() (authService.AuditSigner, error) {
	var err error
	c.auditSignerInit.Do(func() {
		if c.config.AuditSigningKey == "" {
			c.Logger().Warn("AUDIT_SIGNING_KEY is not set, audit logs are stored unsigned")
			return
		}
		c.auditSigner, err = authService.NewAuditSigner([]byte(c.config.AuditSigningKey))
		if err != nil {
			c.initErrors["auditSigner"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditSigner"]; exists {
		return nil, storedErr
	}
	return c.auditSigner, nil
}

// AuthUseCase returns the authorization service.
func (c *Container) AuthUseCase() (authUseCase.AuthUseCase, error) {
	var err error
	c.authUseCaseInit.Do(func() {
		c.authUseCase, err = c.initAuthUseCase()
		if err != nil {
			c.initErrors["authUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authUseCase"]; exists {
		return nil, storedErr
	}
	return c.authUseCase, nil
}

// SettingUseCase returns the settings use case.
func (c *Container) SettingUseCase() (authUseCase.SettingUseCase, error) {
	var err error
	c.settingUseCaseInit.Do(func() {
		c.settingUseCase, err = c.initSettingUseCase()
		if err != nil {
			c.initErrors["settingUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["settingUseCase"]; exists {
		return nil, storedErr
	}
	return c.settingUseCase, nil
}

// AuthHandler returns the auth HTTP handler.
func (c *Container) AuthHandler() (*authHTTP.AuthHandler, error) {
	var err error
	c.authHandlerInit.Do(func() {
		c.authHandler, err = c.initAuthHandler()
		if err != nil {
			c.initErrors["authHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authHandler"]; exists {
		return nil, storedErr
	}
	return c.authHandler, nil
}

// SettingHandler returns the settings HTTP handler.
func (c *Container) SettingHandler() (*authHTTP.SettingHandler, error) {
	var err error
	c.settingHandlerInit.Do(func() {
		c.settingHandler, err = c.initSettingHandler()
		if err != nil {
			c.initErrors["settingHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["settingHandler"]; exists {
		return nil, storedErr
	}
	return c.settingHandler, nil
}

func (c *Container) authConfig() authUseCase.Config {
	return authUseCase.Config{
		SessionTTL:           c.config.SessionTTL,
		SettingsTTL:          c.config.SettingsCacheTTL,
		LoginRateLimitMax:    c.config.LoginRateLimitMax,
		LoginRateLimitWindow: c.config.LoginRateLimitWindow,
		StoreTimeout:         c.config.StoreTimeout,
		PasswordMinLength:    c.config.PasswordMinLength,
	}
}

// initAuthUseCase creates the authorization service with all its dependencies.
func (c *Container) initAuthUseCase() (authUseCase.AuthUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for auth use case: %w", err)
	}

	userRepository, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for auth use case: %w", err)
	}

	settingRepository, err := c.SettingRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get setting repository for auth use case: %w", err)
	}

	organizations, err := c.OrganizationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get organization use case for auth use case: %w", err)
	}

	relationships, err := c.RelationshipUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship use case for auth use case: %w", err)
	}

	cache, err := c.SessionCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get session cache for auth use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for auth use case: %w", err)
	}

	auditLogs, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for auth use case: %w", err)
	}

	passwordService, err := c.PasswordService()
	if err != nil {
		return nil, fmt.Errorf("failed to get password service for auth use case: %w", err)
	}

	baseUseCase := authUseCase.NewAuthUseCase(c.authConfig(), authUseCase.Dependencies{
		TxManager:     txManager,
		Users:         userRepository,
		Settings:      settingRepository,
		Organizations: organizations,
		Relationships: relationships,
		Cache:         cache,
		Publisher:     outboxUseCase.NewPublisher(outboxRepo),
		AuditLogs:     auditLogs,
		Passwords:     passwordService,
		Tokens:        c.TokenService(),
		Logger:        c.Logger(),
	})

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for auth use case: %w", err)
		}
		return authUseCase.NewAuthUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initSettingUseCase creates the settings use case with all its dependencies.
func (c *Container) initSettingUseCase() (authUseCase.SettingUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for setting use case: %w", err)
	}

	settingRepository, err := c.SettingRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get setting repository for setting use case: %w", err)
	}

	cache, err := c.SessionCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get session cache for setting use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for setting use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for setting use case: %w", err)
	}

	baseUseCase := authUseCase.NewSettingUseCase(
		c.authConfig(),
		txManager,
		settingRepository,
		cache,
		outboxUseCase.NewPublisher(outboxRepo),
		businessMetrics,
		c.Logger(),
	)

	if c.config.MetricsEnabled {
		return authUseCase.NewSettingUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initAuthHandler creates the auth HTTP handler with all its dependencies.
func (c *Container) initAuthHandler() (*authHTTP.AuthHandler, error) {
	useCase, err := c.AuthUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth use case for auth handler: %w", err)
	}
	return authHTTP.NewAuthHandler(useCase, c.config.IdentityProviderSecret, c.Logger()), nil
}

// initSettingHandler creates the settings HTTP handler with all its dependencies.
func (c *Container) initSettingHandler() (*authHTTP.SettingHandler, error) {
	useCase, err := c.SettingUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get setting use case for setting handler: %w", err)
	}
	return authHTTP.NewSettingHandler(useCase, c.Logger()), nil
}
