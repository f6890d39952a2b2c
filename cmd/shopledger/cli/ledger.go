package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/odyssey-erp/shopledger/internal/backup"
	"github.com/odyssey-erp/shopledger/internal/inventory"
	"github.com/odyssey-erp/shopledger/internal/seed"
)

// Seeder loads demo data.
type Seeder interface {
	Load(ctx context.Context) (seed.Result, error)
}

// Backups writes and restores backup files.
type Backups interface {
	ExportToDir(ctx context.Context, dir string) (string, error)
	RestoreFile(ctx context.Context, path string) (backup.Counts, error)
}

// Stock runs stock ledger maintenance.
type Stock interface {
	SnapshotAllStock(ctx context.Context) (int, error)
	Reconcile(ctx context.Context) ([]inventory.Drift, error)
}

// LedgerCLI implements the offline maintenance subcommands.
type LedgerCLI struct {
	Seeder    Seeder
	Backups   Backups
	Stock     Stock
	BackupDir string
	Stdout    io.Writer
	Stderr    io.Writer
}

// Run dispatches one subcommand and returns the process exit code.
func (c *LedgerCLI) Run(ctx context.Context, name string, args []string) int {
	var err error
	switch name {
	case "seed":
		err = c.seed(ctx, args)
	case "backup":
		err = c.backup(ctx, args)
	case "restore":
		err = c.restore(ctx, args)
	case "snapshot":
		err = c.snapshot(ctx, args)
	case "reconcile":
		err = c.reconcile(ctx, args)
	default:
		err = fmt.Errorf("unknown command %q", name)
	}
	if err == nil {
		return 0
	}
	fmt.Fprintf(c.Stderr, "%s: %v\n", name, err)
	if errors.Is(err, errDrift) {
		return 2
	}
	return 1
}

var errDrift = errors.New("stock history does not match stock levels")

func (c *LedgerCLI) flags(name string) (*flag.FlagSet, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.Stderr)
	asJSON := fs.Bool("json", false, "print the result as JSON")
	return fs, asJSON
}

func (c *LedgerCLI) seed(ctx context.Context, args []string) error {
	fs, asJSON := c.flags("seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := c.Seeder.Load(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return c.printJSON(res)
	}
	fmt.Fprintf(c.Stdout, "seeded %d products, %d customers, %d expenses, %d sales\n",
		res.Products, res.Customers, res.Expenses, res.Sales)
	return nil
}

func (c *LedgerCLI) backup(ctx context.Context, args []string) error {
	fs, asJSON := c.flags("backup")
	dir := fs.String("dir", c.BackupDir, "directory for the backup file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		return errors.New("backup directory required")
	}
	path, err := c.Backups.ExportToDir(ctx, *dir)
	if err != nil {
		return err
	}
	if *asJSON {
		return c.printJSON(map[string]string{"path": path})
	}
	fmt.Fprintln(c.Stdout, path)
	return nil
}

func (c *LedgerCLI) restore(ctx context.Context, args []string) error {
	fs, asJSON := c.flags("restore")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: restore [-json] <backup-file>")
	}
	counts, err := c.Backups.RestoreFile(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if *asJSON {
		return c.printJSON(counts)
	}
	fmt.Fprintf(c.Stdout, "restored %d products, %d customers, %d sales, %d payments\n",
		counts.Products, counts.Customers, counts.Sales, counts.Payments)
	return nil
}

func (c *LedgerCLI) snapshot(ctx context.Context, args []string) error {
	fs, asJSON := c.flags("snapshot")
	if err := fs.Parse(args); err != nil {
		return err
	}
	n, err := c.Stock.SnapshotAllStock(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return c.printJSON(map[string]int{"products": n})
	}
	fmt.Fprintf(c.Stdout, "snapshot recorded for %d products\n", n)
	return nil
}

func (c *LedgerCLI) reconcile(ctx context.Context, args []string) error {
	fs, asJSON := c.flags("reconcile")
	if err := fs.Parse(args); err != nil {
		return err
	}
	drift, err := c.Stock.Reconcile(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		if err := c.printJSON(drift); err != nil {
			return err
		}
	} else {
		for _, d := range drift {
			fmt.Fprintf(c.Stdout, "product %d: stock %d, history %d\n", d.ProductID, d.StockQuantity, d.HistoryTotal)
		}
	}
	if len(drift) > 0 {
		return errDrift
	}
	return nil
}

func (c *LedgerCLI) printJSON(v any) error {
	enc := json.NewEncoder(c.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
