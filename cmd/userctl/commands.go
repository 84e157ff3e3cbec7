package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"devplatform/internal/users/app/dto"
	"devplatform/internal/users/ports/api"
)

var errMissingCommand = errors.New("missing command")

// command - разобранная команда с привязанными флагами.
type command struct {
	name string
	run  func(ctx context.Context, uc api.UserUseCase, out io.Writer) error
}

type commandSpec struct {
	name  string
	build func(fs *flag.FlagSet) func(ctx context.Context, uc api.UserUseCase, out io.Writer) error
}

var commands = []commandSpec{
	{name: "create", build: buildCreate},
	{name: "list", build: buildList},
	{name: "get", build: buildGet},
	{name: "update", build: buildUpdate},
	{name: "delete", build: buildDelete},
	{name: "rules", build: buildRules},
	{name: "stats", build: buildStats},
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errMissingCommand
	}

	for _, spec := range commands {
		if spec.name != args[0] {
			continue
		}
		fs := flag.NewFlagSet(spec.name, flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		run := spec.build(fs)
		if err := fs.Parse(args[1:]); err != nil {
			return command{}, fmt.Errorf("%s: %w", spec.name, err)
		}
		if fs.NArg() > 0 {
			return command{}, fmt.Errorf("%s: unexpected arguments: %v", spec.name, fs.Args())
		}
		return command{name: spec.name, run: run}, nil
	}
	return command{}, fmt.Errorf("unknown command %q, expected one of: %s", args[0], commandNames())
}

func buildCreate(fs *flag.FlagSet) func(context.Context, api.UserUseCase, io.Writer) error {
	name := fs.String("name", "", "user name")
	email := fs.String("email", "", "user email")
	enterprise := fs.Bool("enterprise", false, "apply enterprise rules")

	return func(ctx context.Context, uc api.UserUseCase, out io.Writer) error {
		user, err := uc.CreateUser(ctx, dto.CreateUserRequest{Name: *name, Email: *email, Enterprise: *enterprise})
		if err != nil {
			return err
		}
		return printJSON(out, user)
	}
}

func buildList(fs *flag.FlagSet) func(context.Context, api.UserUseCase, io.Writer) error {
	domain := fs.String("domain", "", "only users of this email domain")

	return func(ctx context.Context, uc api.UserUseCase, out io.Writer) error {
		users, err := uc.ListUsers(ctx, dto.ListUsersRequest{Domain: *domain})
		if err != nil {
			return err
		}
		return printJSON(out, users)
	}
}

func buildGet(fs *flag.FlagSet) func(context.Context, api.UserUseCase, io.Writer) error {
	id := fs.Int64("id", 0, "user id")

	return func(ctx context.Context, uc api.UserUseCase, out io.Writer) error {
		user, err := uc.GetUser(ctx, *id)
		if err != nil {
			return err
		}
		return printJSON(out, user)
	}
}

func buildUpdate(fs *flag.FlagSet) func(context.Context, api.UserUseCase, io.Writer) error {
	id := fs.Int64("id", 0, "user id")
	var req dto.UpdateUserRequest
	fs.Func("name", "new user name", func(v string) error {
		req.Name = &v
		return nil
	})
	fs.Func("email", "new user email", func(v string) error {
		req.Email = &v
		return nil
	})

	return func(ctx context.Context, uc api.UserUseCase, out io.Writer) error {
		user, err := uc.UpdateUser(ctx, *id, req)
		if err != nil {
			return err
		}
		return printJSON(out, user)
	}
}

func buildDelete(fs *flag.FlagSet) func(context.Context, api.UserUseCase, io.Writer) error {
	id := fs.Int64("id", 0, "user id")

	return func(ctx context.Context, uc api.UserUseCase, out io.Writer) error {
		if err := uc.DeleteUser(ctx, *id); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "user %d deleted\n", *id)
		return err
	}
}

func buildRules(*flag.FlagSet) func(context.Context, api.UserUseCase, io.Writer) error {
	return func(ctx context.Context, uc api.UserUseCase, out io.Writer) error {
		rules, err := uc.ValidationRules(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, rules)
	}
}

func buildStats(*flag.FlagSet) func(context.Context, api.UserUseCase, io.Writer) error {
	return func(ctx context.Context, uc api.UserUseCase, out io.Writer) error {
		stats, err := uc.UserStatistics(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, stats)
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
