package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"shipmatch/internal/config"
	"shipmatch/internal/connectors"
	"shipmatch/internal/listener"
	"shipmatch/internal/pipeline"
	"shipmatch/internal/preview"
	"shipmatch/internal/server"
	"shipmatch/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := cfg.Logger(os.Stderr)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	switch cmd {
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		shipments := fs.String("shipments", "", "shipment file (.xlsx|.csv|.html|.eml)")
		accounts := fs.String("accounts", "", "account directory file")
		useDB := fs.Bool("accounts-db", false, "match against the imported account directory")
		threshold := fs.Float64("threshold", cfg.MatchThreshold, "acceptance threshold 0..100")
		output := fs.String("output", "", "output .xlsx or .csv path (default OUTPUT_DIR/<shipments>.matched.xlsx)")
		showPreview := fs.Bool("preview", false, "print a colour preview of the results")
		previewRows := fs.Int("preview-rows", 25, "rows shown with --preview (0 = all)")
		_ = fs.Parse(os.Args[2:])

		if strings.TrimSpace(*shipments) == "" {
			must(fmt.Errorf("--shipments is required"))
		}
		if (*accounts == "") == !*useDB {
			must(fmt.Errorf("exactly one of --accounts or --accounts-db is required"))
		}
		out := *output
		if out == "" {
			base := filepath.Base(*shipments)
			out = filepath.Join(cfg.OutputDir, strings.TrimSuffix(base, filepath.Ext(base))+".matched.xlsx")
		}

		svc := pipeline.NewRunService(db, cfg, logger)
		res, err := svc.RunFiles(ctx, *shipments, *accounts, *threshold, out)
		must(err)
		if *showPreview {
			preview.Render(os.Stdout, res.Outcomes, res.Threshold, *previewRows)
			preview.RenderSummary(os.Stdout, res.Summary)
		}
		fmt.Printf("run done rows=%d matched=%d cash=%d output=%s\n", res.Summary.Total, res.Summary.Matched, res.Summary.Cash, res.Output)
	case "accounts:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "account directory file")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		n, err := pipeline.NewRunService(db, cfg, logger).ImportAccounts(*input)
		must(err)
		fmt.Printf("accounts imported: %d\n", n)
	case "accounts:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 50, "max rows (0 = all)")
		_ = fs.Parse(os.Args[2:])
		accounts, err := db.ListAccounts()
		must(err)
		source, err := db.GetMetadata(storage.MetaAccountsSource)
		must(err)
		if source != nil {
			fmt.Printf("source: %s\n", *source)
		}
		for i, a := range accounts {
			if *limit > 0 && i >= *limit {
				fmt.Printf("... %d more\n", len(accounts)-i)
				break
			}
			fmt.Printf("%s\t%s\n", a.AccountNumber, a.CustomerName)
		}
		fmt.Printf("total: %d\n", len(accounts))
	case "inbox:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		status := fs.String("status", "", "processed|failed")
		limit := fs.Int("limit", 50, "max rows")
		_ = fs.Parse(os.Args[2:])
		files, err := db.ListInboxFiles(*status, *limit)
		must(err)
		for _, f := range files {
			fmt.Printf("%s\t%s\trows=%d\t%s%s\n", f.CreatedAt, f.Status, f.Rows, filepath.Base(f.Path), errSuffix(f.Error))
		}
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailProvider, "gmail|imap")
		label := fs.String("label", cfg.MailLabel, "mailbox/label")
		max := fs.Int("max", cfg.MailFetchMax, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := connectors.New(cfg, *provider)
		must(err)
		result, err := connectors.NewFetchService(cfg.InboxDir, conn, logger).FetchAndStore(ctx, *label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d inbox=%s\n", *provider, result.Fetched, result.Stored, cfg.InboxDir)
	case "serve":
		must(server.New(db, cfg, logger).Start(ctx))
	case "listen":
		must(listener.NewService(db, cfg, logger).Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func errSuffix(msg string) string {
	if msg == "" {
		return ""
	}
	return "\t" + msg
}

func usage() {
	fmt.Println("usage: shipmatch <command>")
	fmt.Println("commands:")
	fmt.Println("  run --shipments=... (--accounts=... | --accounts-db) [--threshold=85] [--output=...xlsx|csv] [--preview]")
	fmt.Println("  accounts:import --input=...")
	fmt.Println("  accounts:list [--limit=50]")
	fmt.Println("  inbox:list [--status=processed|failed] [--limit=50]")
	fmt.Println("  mail:fetch [--provider=gmail|imap] [--label=INBOX] [--max=20]")
	fmt.Println("  serve")
	fmt.Println("  listen")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
