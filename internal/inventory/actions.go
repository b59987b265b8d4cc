package inventory

import (
	"fmt"

	invpkg "github.com/omicsforge/gdcfetch/pkg/inventory"
	"github.com/urfave/cli/v2"
)

// Action implements `gdcfetch inventory`: a read-only audit of a
// download root written as a text report.
func Action(c *cli.Context) error {
	report, err := invpkg.Scan(c.String("root"), c.Int("examples"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	out := c.String("out")
	if err := report.WriteTo(out); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Printf("[OK] wrote inventory report -> %s\n", out)
	return nil
}
