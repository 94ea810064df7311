package common

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// ProfilePointer is the file naming the profile to use in a directory and its descendants.
	ProfilePointer = ".gemdprofile"

	// DotEnv is the file read by env.Load.
	DotEnv = ".env"
)

type CommonFlags struct {
	Profile      string `flag:"profile" help:"profile name to use"`
	ProfileStore string `flag:"profile-store" help:"path to profile store file"`
	Env          string `flag:"env" help:"path to dotenv file"`
	Project      string `flag:"project" help:"project id. It overrides GEMD_PROJECT and the profile."`
	Dataset      string `flag:"dataset" help:"dataset id. It overrides GEMD_DATASET and the profile."`
	LogLevel     string `flag:"log-level" metavar:"debug|info|warn|error|off" help:"log level. It overrides GEMD_LOG_LEVEL and the profile."`
}

type commonFlagDetection struct {
	home string
}

type CommonFlagDetectionOption func(*commonFlagDetection) *commonFlagDetection

func WithHome(home string) CommonFlagDetectionOption {
	return func(opt *commonFlagDetection) *commonFlagDetection {
		opt.home = home
		return opt
	}
}

// Flags detects default values of CommonFlags for a command run in the directory from.
//
// The nearest ProfilePointer and DotEnv files in from or its ancestors are used.
// Without ProfilePointer, the profile name is the absolute path of from.
func Flags(from string, opt ...CommonFlagDetectionOption) (CommonFlags, error) {
	det := &commonFlagDetection{}
	for _, o := range opt {
		det = o(det)
	}

	home := det.home
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		}
	}
	if abs, err := filepath.Abs(from); err == nil {
		from = abs
	}

	profile := from
	env := filepath.Join(from, DotEnv)
	profileFound, envFound := false, false

	for dir := from; !(profileFound && envFound); {
		if !profileFound {
			candidate := filepath.Join(dir, ProfilePointer)
			if s, err := os.Stat(candidate); err == nil && s.Mode().IsRegular() {
				content, err := os.ReadFile(candidate)
				if err != nil {
					return CommonFlags{}, err
				}
				profileFound = true
				if line, _, _ := strings.Cut(string(content), "\n"); strings.TrimSpace(line) != "" {
					profile = strings.TrimSpace(line)
				}
			}
		}
		if !envFound {
			candidate := filepath.Join(dir, DotEnv)
			if s, err := os.Stat(candidate); err == nil && s.Mode().IsRegular() {
				envFound = true
				env = candidate
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return CommonFlags{
		Profile:      profile,
		ProfileStore: filepath.Join(home, ".gemd", "profile"),
		Env:          env,
	}, nil
}
