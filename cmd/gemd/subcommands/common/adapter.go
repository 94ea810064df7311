package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/youta-t/flarc"

	"github.com/opst/gemdclient/cmd/gemd/env"
	"github.com/opst/gemdclient/pkg/configs/profiles"
	"github.com/opst/gemdclient/pkg/logger"
	"github.com/opst/gemdclient/pkg/platform"
	"github.com/opst/gemdclient/pkg/session"
)

type TaskWithCommonFlag[T any] func(
	ctx context.Context,
	l *log.Logger,
	commonFlag CommonFlags,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTaskWithCommonFlag picks CommonFlags out of params, and sets a logger up.
func NewTaskWithCommonFlag[T any](task TaskWithCommonFlag[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		rest := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				rest = append(rest, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		level, err := logger.ParseLevel(commonFlag.LogLevel)
		if err != nil {
			return fmt.Errorf("%w: %w", flarc.ErrUsage, err)
		}
		return task(ctx, logger.New(cl.Stderr(), cl.Fullname(), level), commonFlag, cl, rest)
	}
}

// Task is a command body working on a project.
type Task[T any] func(
	ctx context.Context,
	l *log.Logger,
	project *platform.Project,
	cl flarc.Commandline[T],
	params []any,
) error

// Resolved is the outcome of merging the profile, the dotenv and the flags.
type Resolved struct {
	Profile  *profiles.Profile
	Project  string
	Dataset  string
	LogLevel string
}

// Resolve merges settings. Flags win over the environment, and the environment wins over the profile.
func Resolve(commonFlag CommonFlags) (Resolved, error) {
	store, err := profiles.LoadProfileStore(commonFlag.ProfileStore)
	if err != nil {
		if errors.Is(err, profiles.ErrProfileStoreNotFound) {
			return Resolved{}, fmt.Errorf(
				"%w: profile store (%s) is not found. Please try `gemd init` first",
				err, commonFlag.ProfileStore,
			)
		}
		return Resolved{}, fmt.Errorf("%w: failed to load profile store (%s)", err, commonFlag.ProfileStore)
	}
	stored, ok := store[commonFlag.Profile]
	if !ok {
		return Resolved{}, fmt.Errorf(
			"profile '%s' not found in the profile store (%s)",
			commonFlag.Profile, commonFlag.ProfileStore,
		)
	}
	prof := *stored

	e, err := env.Load(commonFlag.Env)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: failed to load %s", err, commonFlag.Env)
	}
	if e.RefreshToken != "" {
		prof.RefreshToken = e.RefreshToken
	}

	first := func(vs ...string) string {
		for _, v := range vs {
			if v != "" {
				return v
			}
		}
		return ""
	}
	return Resolved{
		Profile:  &prof,
		Project:  first(commonFlag.Project, e.Project, prof.Project),
		Dataset:  first(commonFlag.Dataset, e.Dataset, prof.Dataset),
		LogLevel: first(commonFlag.LogLevel, e.LogLevel, prof.LogLevel),
	}, nil
}

// NewTask builds a flarc.Task which connects to the platform before task.
func NewTask[T any](task Task[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		for _, p := range pos {
			if cf, ok := p.(CommonFlags); ok {
				commonFlag, found = cf, true
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}
		r, err := Resolve(commonFlag)
		if err != nil {
			return err
		}
		commonFlag.LogLevel = r.LogLevel

		inner := NewTaskWithCommonFlag(func(
			ctx context.Context,
			l *log.Logger,
			_ CommonFlags,
			cl flarc.Commandline[T],
			params []any,
		) error {
			if r.Project == "" {
				return fmt.Errorf("%w: no project. Use --project, GEMD_PROJECT or the profile", flarc.ErrUsage)
			}
			sess, err := session.New(r.Profile, session.WithLogger(l))
			if err != nil {
				return fmt.Errorf(
					"%w: failed to create a session. Your profile (%s in %s) can be broken",
					err, commonFlag.Profile, commonFlag.ProfileStore,
				)
			}
			project := platform.New(sess, platform.WithLogger(l)).Project(r.Project)
			if r.Dataset != "" {
				project = project.Dataset(r.Dataset)
			}
			return task(ctx, l, project, cl, params)
		})

		replaced := make([]any, 0, len(pos))
		for _, p := range pos {
			if _, ok := p.(CommonFlags); ok {
				p = commonFlag
			}
			replaced = append(replaced, p)
		}
		return inner(ctx, cl, replaced)
	}
}
