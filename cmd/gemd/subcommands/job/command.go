package job

import (
	"github.com/youta-t/flarc"

	"github.com/opst/gemdclient/cmd/gemd/subcommands/job/wait"
)

func New() (flarc.Command, error) {
	w, err := wait.New()
	if err != nil {
		return nil, err
	}
	return flarc.NewCommandGroup(
		"Asynchronous jobs on the platform.",
		struct{}{},
		flarc.WithSubcommand("wait", w),
	)
}
