package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Wysakm/weather-app-backend-sub001/internal/cli/output"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/config"
)

var doctorTimeout time.Duration

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the database and the bucket are reachable",
	Long: `Health-check the reference database and the storage bucket, then count
the image references and the objects under the storage prefix.

Exits non-zero when either store is unreachable.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 30*time.Second, "Time allowed for all checks")
}

// DoctorResult is the outcome of one store check.
type DoctorResult struct {
	Store   string `json:"store" yaml:"store"`
	Target  string `json:"target" yaml:"target"`
	Healthy bool   `json:"healthy" yaml:"healthy"`
	Count   int    `json:"count" yaml:"count"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// DoctorResults renders as a table.
type DoctorResults []DoctorResult

// Headers implements output.TableRenderer.
func (r DoctorResults) Headers() []string {
	return []string{"Store", "Target", "Status", "Count", "Error"}
}

// Rows implements output.TableRenderer.
func (r DoctorResults) Rows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, res := range r {
		status, count := "ok", strconv.Itoa(res.Count)
		if !res.Healthy {
			status, count = "FAILED", "-"
		}
		rows = append(rows, []string{res.Store, res.Target, status, count, res.Error})
	}
	return rows
}

func runDoctor(cmd *cobra.Command, args []string) error {
	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
	defer cancel()

	stores, err := config.OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores(stores)

	results := checkStores(ctx, cfg, stores)
	if err := printer.Print(results); err != nil {
		return err
	}

	for _, res := range results {
		if !res.Healthy {
			return fmt.Errorf("%s store is not healthy", res.Store)
		}
	}
	if printer.Format() == output.FormatTable {
		printer.Success("\nAll stores healthy.")
	}
	return nil
}

// checkStores checks and counts both stores concurrently. It never fails;
// problems are reported per store.
func checkStores(ctx context.Context, cfg *config.Config, stores *config.Stores) DoctorResults {
	results := DoctorResults{
		{Store: "references", Target: fmt.Sprintf("%s table %s.%s", cfg.Database.Type, cfg.Database.Table, cfg.Database.LocatorColumn)},
		{Store: "storage", Target: fmt.Sprintf("%s bucket %s/%s", cfg.Storage.Type, cfg.Storage.Bucket, cfg.Storage.Prefix)},
	}

	var g errgroup.Group
	g.Go(func() error {
		res := &results[0]
		if err := stores.References.Healthcheck(ctx); err != nil {
			res.Error = err.Error()
			return nil
		}
		refs, err := stores.References.ListImageReferences(ctx)
		if err != nil {
			res.Error = err.Error()
			return nil
		}
		res.Healthy, res.Count = true, len(refs)
		return nil
	})
	g.Go(func() error {
		res := &results[1]
		if err := stores.Objects.HealthCheck(ctx); err != nil {
			res.Error = err.Error()
			return nil
		}
		keys, err := stores.Objects.ListObjects(ctx, cfg.Storage.Prefix)
		if err != nil {
			res.Error = err.Error()
			return nil
		}
		res.Healthy, res.Count = true, len(keys)
		return nil
	})
	_ = g.Wait()

	return results
}
