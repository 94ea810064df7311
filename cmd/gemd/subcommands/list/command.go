package list

import (
	"context"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/youta-t/flarc"

	"github.com/opst/gemdclient/cmd/gemd/subcommands/common"
	"github.com/opst/gemdclient/pkg/api/types/gemd"
	"github.com/opst/gemdclient/pkg/dataconcepts"
	"github.com/opst/gemdclient/pkg/platform"
	"github.com/opst/gemdclient/pkg/utils/stream"
)

type Flag struct {
	Tag      string `flag:"tag" alias:"t" help:"list objects with this tag."`
	Name     string `flag:"name" alias:"n" help:"list objects with this name. It needs a dataset."`
	Exact    bool   `flag:"exact" help:"match --name exactly. Otherwise it is a case-insensitive prefix."`
	PerPage  int    `flag:"per-page" help:"page size of requests."`
	Limit    int    `flag:"limit" help:"stop after this number of objects. 0 means no limit."`
	Backward bool   `flag:"backward" help:"list from the newest."`
}

const ARG_KIND = "KIND"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"List data-concepts objects.",
		Flag{},
		flarc.Args{
			{Name: ARG_KIND, Required: true, Help: "kind of objects, like material_run or material-runs."},
		},
		common.NewTask(Task),
		flarc.WithDescription(`
List data-concepts objects as a JSON array.

--name and --tag are exclusive. Records which can not be read are skipped with warnings.
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
	if flags.Name != "" && flags.Tag != "" {
		return fmt.Errorf("%w: --name and --tag are exclusive", flarc.ErrUsage)
	}
	kind, err := common.Kind(cl.Args()[ARG_KIND][0])
	if err != nil {
		return err
	}
	coll, err := project.DataConcepts(kind.Tag)
	if err != nil {
		return err
	}

	opts := dataconcepts.ListOptions{PerPage: flags.PerPage, Backward: flags.Backward}
	var it *stream.Iterator[gemd.Resource]
	switch {
	case flags.Name != "":
		it = coll.ListByName(ctx, flags.Name, flags.Exact, opts)
	case flags.Tag != "":
		it = coll.ListByTag(ctx, flags.Tag, opts)
	default:
		it = coll.List(ctx, opts)
	}

	found := []gemd.Resource{}
	for it.Next() {
		found = append(found, it.Value())
		if 0 < flags.Limit && flags.Limit <= len(found) {
			break
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	if n := len(it.Skipped()); 0 < n {
		l.Warnf("%d records are skipped", n)
	}
	return common.PrintJSON(cl.Stdout(), found)
}
