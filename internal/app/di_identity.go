package app

import (
	"fmt"

	identityHTTP "github.com/allisson/planner/internal/identity/http"
	identityRepository "github.com/allisson/planner/internal/identity/repository"
	identityUseCase "github.com/allisson/planner/internal/identity/usecase"
)

// UserRepository returns the user repository based on database driver.
func (c *Container) UserRepository() (identityUseCase.UserRepository, error) {
	var err error
	c.userRepositoryInit.Do(func() {
		c.userRepository, err = c.initUserRepository()
		if err != nil {
			c.initErrors["userRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userRepository"]; exists {
		return nil, storedErr
	}
	return c.userRepository, nil
}

// OrganizationRepository returns the organization, group and role repository.
func (c *Container) OrganizationRepository() (identityUseCase.OrganizationRepository, error) {
	var err error
	c.organizationRepositoryInit.Do(func() {
		c.organizationRepository, err = c.initOrganizationRepository()
		if err != nil {
			c.initErrors["organizationRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["organizationRepository"]; exists {
		return nil, storedErr
	}
	return c.organizationRepository, nil
}

// SettingRepository returns the durable settings repository.
func (c *Container) SettingRepository() (identityUseCase.SettingRepository, error) {
	var err error
	c.settingRepositoryInit.Do(func() {
		c.settingRepository, err = c.initSettingRepository()
		if err != nil {
			c.initErrors["settingRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["settingRepository"]; exists {
		return nil, storedErr
	}
	return c.settingRepository, nil
}

// AuditLogRepository returns the audit log repository based on database driver.
func (c *Container) AuditLogRepository() (identityUseCase.AuditLogRepository, error) {
	var err error
	c.auditLogRepositoryInit.Do(func() {
		c.auditLogRepository, err = c.initAuditLogRepository()
		if err != nil {
			c.initErrors["auditLogRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogRepository"]; exists {
		return nil, storedErr
	}
	return c.auditLogRepository, nil
}

// OrganizationUseCase returns the organization hierarchy use case.
func (c *Container) OrganizationUseCase() (identityUseCase.OrganizationUseCase, error) {
	var err error
	c.organizationUseCaseInit.Do(func() {
		c.organizationUseCase, err = c.initOrganizationUseCase()
		if err != nil {
			c.initErrors["organizationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["organizationUseCase"]; exists {
		return nil, storedErr
	}
	return c.organizationUseCase, nil
}

// AuditLogUseCase returns the audit log use case.
func (c *Container) AuditLogUseCase() (identityUseCase.AuditLogUseCase, error) {
	var err error
	c.auditLogUseCaseInit.Do(func() {
		c.auditLogUseCase, err = c.initAuditLogUseCase()
		if err != nil {
			c.initErrors["auditLogUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditLogUseCase, nil
}

// OrganizationHandler returns the organization HTTP handler.
func (c *Container) OrganizationHandler() (*identityHTTP.OrganizationHandler, error) {
	var err error
	c.organizationHandlerInit.Do(func() {
		c.organizationHandler, err = c.initOrganizationHandler()
		if err != nil {
			c.initErrors["organizationHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["organizationHandler"]; exists {
		return nil, storedErr
	}
	return c.organizationHandler, nil
}

// AuditLogHandler returns the audit log HTTP handler.
func (c *Container) AuditLogHandler() (*identityHTTP.AuditLogHandler, error) {
	var err error
	c.auditLogHandlerInit.Do(func() {
		c.auditLogHandler, err = c.initAuditLogHandler()
		if err != nil {
			c.initErrors["auditLogHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogHandler"]; exists {
		return nil, storedErr
	}
	return c.auditLogHandler, nil
}

// initUserRepository creates the user repository based on the database driver.
func (c *Container) initUserRepository() (identityUseCase.UserRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return identityRepository.NewPostgreSQLUserRepository(db), nil
	case "mysql":
		return identityRepository.NewMySQLUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initOrganizationRepository creates the organization repository based on the database driver.
func (c *Container) initOrganizationRepository() (identityUseCase.OrganizationRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for organization repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return identityRepository.NewPostgreSQLOrganizationRepository(db), nil
	case "mysql":
		return identityRepository.NewMySQLOrganizationRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSettingRepository creates the setting repository based on the database driver.
func (c *Container) initSettingRepository() (identityUseCase.SettingRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for setting repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return identityRepository.NewPostgreSQLSettingRepository(db), nil
	case "mysql":
		return identityRepository.NewMySQLSettingRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuditLogRepository creates the audit log repository based on the database driver.
func (c *Container) initAuditLogRepository() (identityUseCase.AuditLogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit log repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return identityRepository.NewPostgreSQLAuditLogRepository(db), nil
	case "mysql":
		return identityRepository.NewMySQLAuditLogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initOrganizationUseCase creates the organization use case with all its dependencies.
func (c *Container) initOrganizationUseCase() (identityUseCase.OrganizationUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for organization use case: %w", err)
	}

	organizationRepository, err := c.OrganizationRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get organization repository for organization use case: %w", err)
	}

	userRepository, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for organization use case: %w", err)
	}

	relationships, err := c.RelationshipUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship use case for organization use case: %w", err)
	}

	baseUseCase := identityUseCase.NewOrganizationUseCase(txManager, organizationRepository, userRepository, relationships)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for organization use case: %w", err)
		}
		return identityUseCase.NewOrganizationUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initAuditLogUseCase creates the audit log use case with all its dependencies.
func (c *Container) initAuditLogUseCase() (identityUseCase.AuditLogUseCase, error) {
	auditLogRepository, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for audit log use case: %w", err)
	}

	signer, err := c.AuditSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit signer for audit log use case: %w", err)
	}

	var auditSigner identityUseCase.AuditSigner
	if signer != nil {
		auditSigner = signer
	}
	baseUseCase := identityUseCase.NewAuditLogUseCase(auditLogRepository, auditSigner)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for audit log use case: %w", err)
		}
		return identityUseCase.NewAuditLogUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initOrganizationHandler creates the organization HTTP handler with all its dependencies.
func (c *Container) initOrganizationHandler() (*identityHTTP.OrganizationHandler, error) {
	organizationUseCase, err := c.OrganizationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get organization use case for organization handler: %w", err)
	}
	return identityHTTP.NewOrganizationHandler(organizationUseCase, c.Logger()), nil
}

// initAuditLogHandler creates the audit log HTTP handler with all its dependencies.
func (c *Container) initAuditLogHandler() (*identityHTTP.AuditLogHandler, error) {
	auditLogUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for audit log handler: %w", err)
	}
	return identityHTTP.NewAuditLogHandler(auditLogUseCase, c.Logger()), nil
}
