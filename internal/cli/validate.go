package cli

import (
	"fmt"
	"sort"

	"github.com/enderxdxd/botflow/pkg/adapters/file"
	"github.com/enderxdxd/botflow/pkg/flow"
)

// Validate compiles every flow under dir and reports invariant violations.
// Returns an error when at least one flow is malformed.
func Validate(dir string) error {
	repo, err := file.Open(dir)
	if err != nil {
		return err
	}

	defs := repo.All()
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })

	failures := 0
	for _, def := range defs {
		if _, err := flow.Compile(def); err != nil {
			failures++
			fmt.Printf("FAIL  %s (%s): %v\n", def.ID, def.Name, err)
			continue
		}
		fmt.Printf("ok    %s (%s)\n", def.ID, def.Name)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d flows are malformed", failures, len(defs))
	}
	fmt.Printf("%d flows validated\n", len(defs))
	return nil
}
