package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/supankharikap/ServiceTeam/internal/importer"
	"github.com/supankharikap/ServiceTeam/modules/fieldops/infrastructure/persistence"
)

func main() {
	table := flag.String("table", "", "target table (defaults to INSTALLBASE_TABLE or fieldops.install_base)")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: importer [-table schema.table] export.tsv")
	}
	path := flag.Arg(0)

	target := *table
	if target == "" {
		target = os.Getenv("INSTALLBASE_TABLE")
	}
	if target == "" {
		target = "fieldops.install_base"
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	f, err := os.Open(path)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	im := importer.New(persistence.NewPGSchemaProvider(pool), persistence.NewPGRowStore(pool), target)
	sum, err := im.Run(ctx, f)
	if err != nil {
		log.Fatalf("import %s failed after %d rows: %v", sum.RunID, sum.Rows, err)
	}
	log.Printf("import %s complete: %d rows, %d skipped", sum.RunID, sum.Rows, sum.Skipped)
}
