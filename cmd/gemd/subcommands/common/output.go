package common

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/youta-t/flarc"

	"github.com/opst/gemdclient/pkg/dataconcepts"
)

// Kind finds a data-concepts kind by its type tag ("material_run") or path segment ("material-runs").
func Kind(name string) (dataconcepts.Kind, error) {
	if k, ok := dataconcepts.KindOf(name); ok {
		return k, nil
	}
	names := []string{}
	for _, k := range dataconcepts.Kinds() {
		if k.Segment == name {
			return k, nil
		}
		names = append(names, k.Tag)
	}
	return dataconcepts.Kind{}, fmt.Errorf(
		"%w: unknown kind %q. It should be one of %s",
		flarc.ErrUsage, name, strings.Join(names, ", "),
	)
}

// PrintJSON writes v to w as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}
