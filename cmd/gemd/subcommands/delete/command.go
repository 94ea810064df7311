package delete

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/youta-t/flarc"

	"github.com/opst/gemdclient/cmd/gemd/subcommands/common"
	"github.com/opst/gemdclient/pkg/api/types/gemd"
	"github.com/opst/gemdclient/pkg/dataconcepts"
	"github.com/opst/gemdclient/pkg/jobs"
	"github.com/opst/gemdclient/pkg/platform"
)

type Flag struct {
	Scope   string        `flag:"scope" alias:"s" help:"scope of IDs."`
	DryRun  bool          `flag:"dry-run" help:"check deletion without deleting. Only with one ID."`
	Async   bool          `flag:"async" help:"delete with an asynchronous job, and wait for it."`
	Timeout time.Duration `flag:"timeout" help:"how long the job is waited for, with --async."`
}

const (
	ARG_KIND = "KIND"
	ARG_ID   = "ID"
)

var ErrNotDeleted = fmt.Errorf("some objects are not deleted")

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Delete data-concepts objects.",
		Flag{Scope: gemd.CanonicalScope, Timeout: jobs.DefaultTimeout},
		flarc.Args{
			{Name: ARG_KIND, Required: true, Help: "kind of objects, like material_run or material-runs."},
			{Name: ARG_ID, Required: true, Repeatable: true, Help: "ids of objects in the scope."},
		},
		common.NewTask(Task),
		flarc.WithDescription(`
Delete data-concepts objects.

One ID is deleted with a single request. More IDs are deleted in batches,
up to 50 IDs. With --async, any number of IDs are deleted with one job.
Objects referred from others are not deleted, and written to stdout with their causes.
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
	args := cl.Args()
	kind, err := common.Kind(args[ARG_KIND][0])
	if err != nil {
		return err
	}
	scope := flags.Scope
	if scope == "" {
		scope = gemd.CanonicalScope
	}
	ids := args[ARG_ID]

	coll, err := project.DataConcepts(kind.Tag)
	if err != nil {
		return err
	}

	if len(ids) == 1 && !flags.Async {
		if err := coll.Delete(ctx, gemd.NewLink(scope, ids[0]), flags.DryRun); err != nil {
			return err
		}
		l.Infof("deleted: %s %s:%s", kind.Tag, scope, ids[0])
		return nil
	}
	if flags.DryRun {
		return fmt.Errorf("%w: --dry-run takes only one ID, without --async", flarc.ErrUsage)
	}
	if !flags.Async && dataconcepts.BatchDeleteSize < len(ids) {
		return fmt.Errorf("%w: more than %d IDs need --async", flarc.ErrUsage, dataconcepts.BatchDeleteSize)
	}

	refs := make([]any, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, gemd.NewLink(scope, id))
	}

	var failures []dataconcepts.DeletionFailure
	if flags.Async {
		failures, err = coll.AsyncBatchDelete(ctx, refs, jobs.PollOptions{Timeout: flags.Timeout})
	} else {
		failures, err = coll.BatchDelete(ctx, refs)
	}
	if err != nil {
		return err
	}
	if len(failures) == 0 {
		l.Infof("deleted: %d objects", len(refs))
		return nil
	}

	report := make([]map[string]any, 0, len(failures))
	for _, f := range failures {
		report = append(report, map[string]any{"id": f.Link, "cause": f.Cause})
	}
	if err := common.PrintJSON(cl.Stdout(), report); err != nil {
		return err
	}
	return fmt.Errorf("%w: %d of %d", ErrNotDeleted, len(failures), len(refs))
}
