package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	pb "github.com/cheggaaa/pb/v3"
	"github.com/labstack/gommon/log"
	"github.com/youta-t/flarc"

	"github.com/opst/gemdclient/cmd/gemd/subcommands/common"
	"github.com/opst/gemdclient/pkg/api/types/gemd"
	xe "github.com/opst/gemdclient/pkg/errors"
	"github.com/opst/gemdclient/pkg/platform"
	"github.com/opst/gemdclient/pkg/registry"
)

type Flag struct {
	DryRun bool `flag:"dry-run" help:"validate objects without storing them."`
}

const ARG_FILE = "FILE"

type Option struct {
	progressOut io.Writer
	readFile    func(string) ([]byte, error)
}

// WithProgressOut sets where the progress bar is drawn. Defaults to stderr of the command.
func WithProgressOut(w io.Writer) func(*Option) *Option {
	return func(o *Option) *Option {
		o.progressOut = w
		return o
	}
}

func WithReadFile(f func(string) ([]byte, error)) func(*Option) *Option {
	return func(o *Option) *Option {
		o.readFile = f
		return o
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	return flarc.NewCommand(
		"Register data-concepts objects from JSON files.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_FILE, Required: true, Repeatable: true,
				Help: "JSON file holding an object or an array of objects, with \"type\".",
			},
		},
		common.NewTask(Task(options...)),
		flarc.WithDescription(`
Register data-concepts objects from JSON files into the dataset.

Objects are registered in the order they appear. Register templates before
specs and runs using them. References between objects in the files can be links
or embedded objects. Embedded objects are sent as links, and are not registered
by themselves.

Registered objects are written to stdout as a JSON array.
`),
	)
}

// Load reads objects from a JSON payload, an object or an array of objects.
func Load(reg *registry.Registry, content []byte) ([]gemd.Resource, error) {
	content = bytes.TrimSpace(content)
	raws := []json.RawMessage{}
	if 0 < len(content) && content[0] == '[' {
		if err := json.Unmarshal(content, &raws); err != nil {
			return nil, fmt.Errorf("%w: %w", xe.ErrInvalidShape, err)
		}
	} else {
		raws = append(raws, content)
	}

	ret := make([]gemd.Resource, 0, len(raws))
	for i, raw := range raws {
		res, err := reg.BuildResource(raw)
		if err != nil {
			return nil, fmt.Errorf("#%d: %w", i, err)
		}
		ret = append(ret, res)
	}
	return ret, nil
}

func Task(options ...func(*Option) *Option) common.Task[Flag] {
	option := &Option{readFile: os.ReadFile}
	for _, opt := range options {
		option = opt(option)
	}

	return func(
		ctx context.Context,
		l *log.Logger,
		project *platform.Project,
		cl flarc.Commandline[Flag],
		_ []any,
	) error {
		if project.DatasetID() == "" {
			return fmt.Errorf("%w: registering needs a dataset. Use --dataset, GEMD_DATASET or the profile", flarc.ErrUsage)
		}

		reg := registry.Default()
		objects := []gemd.Resource{}
		for _, f := range cl.Args()[ARG_FILE] {
			content, err := option.readFile(f)
			if err != nil {
				return err
			}
			objs, err := Load(reg, content)
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			objects = append(objects, objs...)
		}

		progressOut := option.progressOut
		if progressOut == nil {
			progressOut = cl.Stderr()
		}
		bar := pb.New(len(objects))
		bar.SetWriter(progressOut)
		if err := bar.Err(); err != nil {
			return err
		}
		bar.Start()

		dryRun := cl.Flags().DryRun
		registered := make([]gemd.Resource, 0, len(objects))
		var failed error
		for _, obj := range objects {
			coll, err := project.DataConcepts(obj.TypeTag())
			if err != nil {
				failed = err
				break
			}
			res, err := coll.Register(ctx, obj, dryRun)
			if err != nil {
				var rf *xe.RegistrationFailed
				if errors.As(err, &rf) {
					l.Errorf("rejected: %s %q", obj.TypeTag(), obj.Common().Name)
				}
				failed = err
				break
			}
			registered = append(registered, res)
			bar.Increment()
		}
		bar.Finish()

		if err := common.PrintJSON(cl.Stdout(), registered); err != nil {
			return err
		}
		if failed != nil {
			return fmt.Errorf("%w: %d of %d objects are registered", failed, len(registered), len(objects))
		}
		l.Infof("%d objects are registered", len(registered))
		return nil
	}
}
