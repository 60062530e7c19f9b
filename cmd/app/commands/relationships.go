package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
	relationshipUseCase "github.com/allisson/planner/internal/relationship/usecase"
)

// RunGrant writes a relationship tuple given in resource#relation@subject form, for
// example "organization:o1#admin@user:u1".
func RunGrant(
	ctx context.Context,
	relationships relationshipUseCase.RelationshipUseCase,
	logger *slog.Logger,
	writer io.Writer,
	rawTuple string,
	format string,
) error {
	tuple, err := relationshipDomain.ParseTuple(rawTuple)
	if err != nil {
		return err
	}

	if err := relationships.WriteRelationship(ctx, tuple); err != nil {
		return fmt.Errorf("failed to write relationship: %w", err)
	}

	logger.Info("relationship granted", slog.String("tuple", tuple.String()))
	return writeResult(
		writer,
		format,
		map[string]any{"tuple": tuple.String(), "granted": true},
		fmt.Sprintf("Granted %s", tuple),
	)
}

// RunRevoke deletes a relationship tuple. Revoking an absent tuple succeeds.
func RunRevoke(
	ctx context.Context,
	relationships relationshipUseCase.RelationshipUseCase,
	logger *slog.Logger,
	writer io.Writer,
	rawTuple string,
	format string,
) error {
	tuple, err := relationshipDomain.ParseTuple(rawTuple)
	if err != nil {
		return err
	}

	if err := relationships.DeleteRelationship(ctx, tuple); err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}

	logger.Info("relationship revoked", slog.String("tuple", tuple.String()))
	return writeResult(
		writer,
		format,
		map[string]any{"tuple": tuple.String(), "revoked": true},
		fmt.Sprintf("Revoked %s", tuple),
	)
}
