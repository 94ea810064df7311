package get

import (
	"context"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/youta-t/flarc"

	"github.com/opst/gemdclient/cmd/gemd/subcommands/common"
	"github.com/opst/gemdclient/pkg/api/types/gemd"
	"github.com/opst/gemdclient/pkg/platform"
)

type Flag struct {
	Scope string `flag:"scope" alias:"s" help:"scope of ID."`
}

const (
	ARG_KIND = "KIND"
	ARG_ID   = "ID"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show a data-concepts object.",
		Flag{Scope: gemd.CanonicalScope},
		flarc.Args{
			{Name: ARG_KIND, Required: true, Help: "kind of the object, like material_run or material-runs."},
			{Name: ARG_ID, Required: true, Help: "id of the object in the scope."},
		},
		common.NewTask(Task),
		flarc.WithDescription(`
Show a data-concepts object as JSON.

Without --dataset, the object is looked up in the whole project.
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
	args := cl.Args()
	kind, err := common.Kind(args[ARG_KIND][0])
	if err != nil {
		return err
	}
	scope := cl.Flags().Scope
	if scope == "" {
		scope = gemd.CanonicalScope
	}
	id := args[ARG_ID][0]

	coll, err := project.DataConcepts(kind.Tag)
	if err != nil {
		return err
	}
	obj, err := coll.Get(ctx, gemd.NewLink(scope, id))
	if err != nil {
		return fmt.Errorf("%w: %s %s:%s", err, kind.Tag, scope, id)
	}
	return common.PrintJSON(cl.Stdout(), obj)
}
