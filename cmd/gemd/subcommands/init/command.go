package init

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/labstack/gommon/log"
	"github.com/youta-t/flarc"
	"gopkg.in/yaml.v3"

	"github.com/opst/gemdclient/cmd/gemd/subcommands/common"
	"github.com/opst/gemdclient/pkg/configs/open"
	"github.com/opst/gemdclient/pkg/configs/profiles"
)

const ARG_PROFILE_FILE = "PROFILE_FILE"

type Option struct {
	// dir is where the profile pointer is written.
	dir string
}

func WithDir(dir string) func(*Option) *Option {
	return func(o *Option) *Option {
		o.dir = dir
		return o
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	return flarc.NewCommand(
		"Initialize this directory to use a platform.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_PROFILE_FILE, Required: true,
				Help: "path to a profile file, which you received from your admin.",
			},
		},
		common.NewTaskWithCommonFlag(Task(options...)),
		flarc.WithDescription(`
Register a profile into your profile store, and use it in this directory.

A profile is a YAML file telling the endpoint of the platform and your refresh token.
The name of the profile is given by --profile (default: current directory path).
`),
	)
}

func Task(options ...func(*Option) *Option) common.TaskWithCommonFlag[struct{}] {
	option := &Option{dir: "."}
	for _, opt := range options {
		option = opt(option)
	}

	return func(
		ctx context.Context,
		l *log.Logger,
		cf common.CommonFlags,
		cl flarc.Commandline[struct{}],
		_ []any,
	) error {
		profFile := cl.Args()[ARG_PROFILE_FILE][0]

		store, err := profiles.LoadProfileStore(cf.ProfileStore)
		if errors.Is(err, profiles.ErrProfileStoreNotFound) {
			store = profiles.ProfileStore{}
		} else if err != nil {
			return fmt.Errorf("failed to load profile store (%s): %w", cf.ProfileStore, err)
		}

		content, err := os.ReadFile(profFile)
		if err != nil {
			return fmt.Errorf("failed to read profile file (%s): %w", profFile, err)
		}
		newProf := new(profiles.Profile)
		if err := yaml.Unmarshal(content, newProf); err != nil {
			return fmt.Errorf("failed to parse profile file (%s): %w", profFile, err)
		}
		if err := newProf.Verify(); err != nil {
			return fmt.Errorf("%s: %w", profFile, err)
		}

		store[cf.Profile] = newProf
		if err := store.Save(cf.ProfileStore); err != nil {
			return fmt.Errorf("failed to save profile store (%s): %w", cf.ProfileStore, err)
		}
		l.Infof("profile %s is saved to %s", cf.Profile, cf.ProfileStore)

		f, err := open.NewSafeFile(filepath.Join(option.dir, common.ProfilePointer))
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", common.ProfilePointer, err)
		}
		defer f.Close()
		_, err = f.Write([]byte(cf.Profile))
		return err
	}
}
