package wait

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/youta-t/flarc"

	"github.com/opst/gemdclient/cmd/gemd/subcommands/common"
	"github.com/opst/gemdclient/pkg/jobs"
	"github.com/opst/gemdclient/pkg/platform"
)

type Flag struct {
	Timeout  time.Duration `flag:"timeout" help:"give up after this duration."`
	Delay    time.Duration `flag:"delay" help:"interval of status checks."`
	Backoff  float64       `flag:"backoff" help:"multiply the interval by this after each check. 1 or less keeps it fixed."`
	MaxDelay time.Duration `flag:"max-delay" help:"upper bound of the interval with --backoff."`
}

const ARG_JOB_ID = "JOB_ID"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Wait for a job to finish.",
		Flag{Timeout: jobs.DefaultTimeout, Delay: jobs.DefaultDelay},
		flarc.Args{
			{Name: ARG_JOB_ID, Required: true, Help: "id of the job."},
		},
		common.NewTask(Task),
		flarc.WithDescription(`
Wait for a job to finish, and write its final status to stdout as JSON.

It fails when the job fails or does not finish in --timeout.
`),
	)
}

func Task(
	ctx context.Context,
	l *log.Logger,
	project *platform.Project,
	cl flarc.Commandline[Flag],
	_ []any,
) error {
	flags := cl.Flags()
	jobID := cl.Args()[ARG_JOB_ID][0]

	l.Infof("waiting for job %s", jobID)
	st, err := project.Jobs().Poll(ctx, jobID, jobs.PollOptions{
		Timeout:  flags.Timeout,
		Delay:    flags.Delay,
		Backoff:  flags.Backoff,
		MaxDelay: flags.MaxDelay,
	})
	if err != nil {
		return err
	}
	return common.PrintJSON(cl.Stdout(), st)
}
