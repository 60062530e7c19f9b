package app

import (
	"fmt"

	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
	relationshipHTTP "github.com/allisson/planner/internal/relationship/http"
	relationshipRepository "github.com/allisson/planner/internal/relationship/repository"
	relationshipUseCase "github.com/allisson/planner/internal/relationship/usecase"
)

// TupleRepository returns the relationship tuple repository based on database driver.
func (c *Container) TupleRepository() (relationshipUseCase.TupleRepository, error) {
	var err error
	c.tupleRepositoryInit.Do(func() {
		c.tupleRepository, err = c.initTupleRepository()
		if err != nil {
			c.initErrors["tupleRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tupleRepository"]; exists {
		return nil, storedErr
	}
	return c.tupleRepository, nil
}

// RelationshipUseCase returns the relationship store.
func (c *Container) RelationshipUseCase() (relationshipUseCase.RelationshipUseCase, error) {
	var err error
	c.relationshipUseCaseInit.Do(func() {
		c.relationshipUseCase, err = c.initRelationshipUseCase()
		if err != nil {
			c.initErrors["relationshipUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["relationshipUseCase"]; exists {
		return nil, storedErr
	}
	return c.relationshipUseCase, nil
}

// RelationshipHandler returns the relationship HTTP handler.
func (c *Container) RelationshipHandler() (*relationshipHTTP.RelationshipHandler, error) {
	var err error
	c.relationshipHandlerInit.Do(func() {
		c.relationshipHandler, err = c.initRelationshipHandler()
		if err != nil {
			c.initErrors["relationshipHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["relationshipHandler"]; exists {
		return nil, storedErr
	}
	return c.relationshipHandler, nil
}

// initTupleRepository creates the tuple repository based on the database driver.
func (c *Container) initTupleRepository() (relationshipUseCase.TupleRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tuple repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return relationshipRepository.NewPostgreSQLTupleRepository(db), nil
	case "mysql":
		return relationshipRepository.NewMySQLTupleRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRelationshipUseCase creates the relationship store over the planner schema.
func (c *Container) initRelationshipUseCase() (relationshipUseCase.RelationshipUseCase, error) {
	tupleRepository, err := c.TupleRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get tuple repository for relationship use case: %w", err)
	}

	baseUseCase := relationshipUseCase.NewRelationshipUseCase(
		tupleRepository,
		relationshipDomain.DefaultSchema(),
		relationshipUseCase.Config{
			StoreTimeout: c.config.StoreTimeout,
			MaxDepth:     c.config.RelationshipMaxDepth,
		},
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for relationship use case: %w", err)
		}
		return relationshipUseCase.NewRelationshipUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initRelationshipHandler creates the relationship HTTP handler with all its dependencies.
func (c *Container) initRelationshipHandler() (*relationshipHTTP.RelationshipHandler, error) {
	useCase, err := c.RelationshipUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship use case for relationship handler: %w", err)
	}
	return relationshipHTTP.NewRelationshipHandler(useCase, c.Logger()), nil
}
