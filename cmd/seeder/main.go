package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/foxxcyber/bubblegut/internal/config"
	"github.com/foxxcyber/bubblegut/internal/database"
	"github.com/foxxcyber/bubblegut/internal/logging"
	"github.com/foxxcyber/bubblegut/internal/models"
)

// defaultTags are the diet tags offered on a fresh install
var defaultTags = []string{
	"low-fodmap",
	"gluten-free",
	"dairy-free",
	"lactose-free",
	"vegetarian",
	"vegan",
	"high-fiber",
	"low-fat",
	"nut-free",
	"egg-free",
	"soy-free",
	"anti-inflammatory",
	"breakfast",
	"lunch",
	"dinner",
	"snack",
	"dessert",
}

func main() {
	// Command line flags
	dryRun := flag.Bool("dry-run", false, "Preview changes without writing to database")
	localFile := flag.String("file", "", "Read tags from a CSV file with a 'name' column instead of the defaults")
	flag.Parse()

	// Load .env
	godotenv.Load()

	// Load config
	cfg := config.Load()

	zlog, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	tags := defaultTags
	if *localFile != "" {
		file, err := os.Open(*localFile)
		if err != nil {
			zlog.Fatal("Failed to open local file", zap.Error(err))
		}
		defer file.Close()

		tags, err = parseTagData(file)
		if err != nil {
			zlog.Fatal("Failed to parse tag data", zap.Error(err))
		}
		zlog.Info("Read tags from local file", zap.String("file", *localFile))
	}
	tags = normalizeTags(tags)

	zlog.Info("Tags to import", zap.Int("count", len(tags)))

	if *dryRun {
		printPreview(tags)
		return
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		zlog.Fatal("Failed to run migrations", zap.Error(err))
	}

	imported, err := importTags(context.Background(), db, tags)
	if err != nil {
		zlog.Fatal("Failed to import tags", zap.Error(err))
	}

	zlog.Info("Import complete", zap.Int("tags", imported))
}

// parseTagData reads tag names from CSV. The header must contain a 'name'
// column; other columns are ignored.
func parseTagData(reader io.Reader) ([]string, error) {
	csvReader := csv.NewReader(bufio.NewReader(reader))
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	nameCol := -1
	for i, col := range header {
		if strings.ToLower(strings.TrimSpace(col)) == "name" {
			nameCol = i
			break
		}
	}
	if nameCol < 0 {
		return nil, errors.New("CSV header has no 'name' column")
	}

	var tags []string
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if nameCol < len(record) {
			tags = append(tags, record[nameCol])
		}
	}

	return tags, nil
}

// normalizeTags lowercases, trims, drops blanks and duplicates, and sorts
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

type tagUpserter interface {
	UpsertTag(ctx context.Context, name string) (*models.Tag, error)
}

// importTags upserts every tag and returns how many were written
func importTags(ctx context.Context, db tagUpserter, tags []string) (int, error) {
	for i, name := range tags {
		if _, err := db.UpsertTag(ctx, name); err != nil {
			return i, err
		}
	}
	return len(tags), nil
}

// printPreview shows the tags that would be imported
func printPreview(tags []string) {
	fmt.Println("\n=== DRY RUN - tags to import ===")
	fmt.Printf("Total: %d tags\n\n", len(tags))
	for _, tag := range tags {
		fmt.Printf("  %s\n", tag)
	}
}
