package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/planner/cmd/app/commands"
	"github.com/allisson/planner/internal/app"
	"github.com/allisson/planner/internal/config"
)

func tupleFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "tuple",
		Aliases:  []string{"t"},
		Required: true,
		Usage:    "Relationship in resource#relation@subject form (e.g. organization:o1#admin@user:u1)",
	}
}

func getAccessCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "grant",
			Usage: "Write a relationship tuple",
			Flags: []cli.Flag{tupleFlag(), formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer func() { _ = container.Shutdown(ctx) }()

				relationships, err := container.RelationshipUseCase()
				if err != nil {
					return err
				}

				return commands.RunGrant(
					ctx,
					relationships,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("tuple"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "revoke",
			Usage: "Delete a relationship tuple",
			Flags: []cli.Flag{tupleFlag(), formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer func() { _ = container.Shutdown(ctx) }()

				relationships, err := container.RelationshipUseCase()
				if err != nil {
					return err
				}

				return commands.RunRevoke(
					ctx,
					relationships,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("tuple"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "deactivate-user",
			Usage: "Deactivate a user account and revoke its sessions",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "User ID (UUID)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer func() { _ = container.Shutdown(ctx) }()

				auth, err := container.AuthUseCase()
				if err != nil {
					return err
				}

				return commands.RunDeactivateUser(
					ctx,
					auth,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "revoke-sessions",
			Usage: "Delete every session of a subject",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "subject",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Subject ID whose sessions are revoked",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer func() { _ = container.Shutdown(ctx) }()

				auth, err := container.AuthUseCase()
				if err != nil {
					return err
				}

				return commands.RunRevokeSessions(
					ctx,
					auth,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("subject"),
					cmd.String("format"),
				)
			},
		},
	}
}
