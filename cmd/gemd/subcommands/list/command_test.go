package list_test

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youta-t/flarc"

	"github.com/opst/gemdclient/cmd/gemd/subcommands/internal/commandline"
	"github.com/opst/gemdclient/cmd/gemd/subcommands/list"
	"github.com/opst/gemdclient/pkg/api/types/gemd"
	"github.com/opst/gemdclient/pkg/logger"
	"github.com/opst/gemdclient/pkg/platform"
	"github.com/opst/gemdclient/pkg/session/mock"
)

func page(next string, names ...string) json.RawMessage {
	contents := []any{}
	for _, n := range names {
		contents = append(contents, map[string]any{
			"type": gemd.TypeMaterialSpec, "name": n,
			"uids": map[string]string{"id": n},
		})
	}
	p := map[string]any{"contents": contents}
	if next != "" {
		p["next"] = next
	}
	return mock.JSON(p)
}

func TestListCommand(t *testing.T) {
	type then struct {
		path   string
		params url.Values
		names  []string
		err    error
	}

	theory := func(flags list.Flag, then then) func(*testing.T) {
		return func(t *testing.T) {
			sess := mock.New()
			sess.Impl.Get = func(_ context.Context, _ string, params url.Values) (json.RawMessage, error) {
				if params.Get("cursor") == "" {
					return page("c1", "a", "b"), nil
				}
				return page("", "c"), nil
			}
			project := platform.New(sess).Project("p-1").Dataset("d-1")

			stdout := new(strings.Builder)
			err := list.Task(
				context.Background(), logger.Null(), project,
				commandline.MockCommandline[list.Flag]{
					Fullname_: "gemd list",
					Stdout_:   stdout,
					Flags_:    flags,
					Args_:     map[string][]string{list.ARG_KIND: {"material_spec"}},
				},
				nil,
			)
			if then.err != nil {
				assert.ErrorIs(t, err, then.err)
				assert.Equal(t, uint(0), sess.Calls.Get.Times())
				return
			}
			require.NoError(t, err)

			require.NotZero(t, sess.Calls.Get.Times())
			req := sess.Calls.Get[0]
			assert.Equal(t, then.path, req.Path)
			for k := range then.params {
				assert.Equal(t, then.params.Get(k), req.Params.Get(k), k)
			}

			actual := []map[string]any{}
			require.NoError(t, json.Unmarshal([]byte(stdout.String()), &actual))
			names := []string{}
			for _, a := range actual {
				names = append(names, a["name"].(string))
			}
			assert.Equal(t, then.names, names)
		}
	}

	t.Run("all", theory(
		list.Flag{},
		then{
			path:  "projects/p-1/datasets/d-1/material-specs",
			names: []string{"a", "b", "c"},
		},
	))
	t.Run("by tag", theory(
		list.Flag{Tag: "alloy", PerPage: 2},
		then{
			path:   "projects/p-1/material-specs",
			params: url.Values{"tags": {"alloy"}, "dataset_id": {"d-1"}, "per_page": {"2"}},
			names:  []string{"a", "b", "c"},
		},
	))
	t.Run("by name", theory(
		list.Flag{Name: "st", Exact: true},
		then{
			path:   "projects/p-1/material-specs/filter-by-name",
			params: url.Values{"name": {"st"}, "exact": {"true"}},
			names:  []string{"a", "b", "c"},
		},
	))
	t.Run("limit stops paging", theory(
		list.Flag{Limit: 2, Backward: true},
		then{
			path:   "projects/p-1/datasets/d-1/material-specs",
			params: url.Values{"forward": {"false"}},
			names:  []string{"a", "b"},
		},
	))
	t.Run("name and tag are exclusive", theory(
		list.Flag{Name: "st", Tag: "alloy"},
		then{err: flarc.ErrUsage},
	))
}
