package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"

	"github.com/poiesic/corpus"
)

// Built-in demo documents, one per entry. Several carry explicit
// temporal ranges so the metadata extractor has something to find.
var documents = []struct {
	fileName string
	category string
	text     string
}{
	{
		fileName: "acme_q3.txt",
		category: "finance",
		text: "ACME Corp revenue grew 20% in Q3, driven by strong anvil sales " +
			"in the coyote segment. Operating margin expanded to 18% while " +
			"rocket skate returns declined for the second quarter running. " +
			"Management reiterated full-year guidance of double digit growth.",
	},
	{
		fileName: "acme_history.txt",
		category: "finance",
		text: "Founded in a garage, ACME operated as a mail order catalog " +
			"from 03.1985 - 11.2002 before moving online. The company went " +
			"public in 2004 and has paid a dividend every year since 2011.",
	},
	{
		fileName: "monsoon.txt",
		category: "general",
		text: "Monsoon patterns across South Asia shifted noticeably between " +
			"1998 and 2023. Earlier onset dates and heavier burst rainfall " +
			"now characterize the season, straining reservoir management " +
			"and rice planting schedules across the subcontinent.",
	},
	{
		fileName: "lighthouse.txt",
		category: "general",
		text: "The abandoned lighthouse still broadcasts its warning every " +
			"third Tuesday. Maintenance logs from 06.2009 - Current show " +
			"nobody has climbed the tower in years, yet the lamp rotates " +
			"and the foghorn answers ships that no longer sail this route.",
	},
	{
		fileName: "orchard.txt",
		category: "general",
		text: "She tasted fruit straight from the orchard's ripe branches " +
			"while the wind carried scents of jasmine from distant gardens. " +
			"Honey came straight from a beehive's sweet core and bread was " +
			"baked just before dawn on market days.",
	},
	{
		fileName: "server_room.txt",
		category: "tech",
		text: "The server room developed opinions about the backup schedule. " +
			"Memory leaks formed a union, the garbage collector went on " +
			"strike, and the null pointer exception filed for workers' " +
			"compensation. The cat debugged the production database at 3 AM.",
	},
	{
		fileName: "expedition.txt",
		category: "general",
		text: "A mysterious map led them to a forgotten treasure buried under " +
			"the desert dunes. They explored caves filled with stalactites " +
			"glittering like chandeliers and discovered an ancient rune " +
			"carved deep within the stone.",
	},
	{
		fileName: "quantum_office.txt",
		category: "tech",
		text: "Documentation exists in a superposition until observed. " +
			"Schrodinger's cat opened a consulting firm, the firewall gained " +
			"sentience and immediately requested vacation days, and the " +
			"random number generator achieved enlightenment at seed 42.",
	},
}

var (
	seedFileName = flag.String("src", "", "file of seed documents, one per line")
	dbPath       = flag.String("db", "./corpus_db", "path to BadgerDB database directory")
	category     = flag.String("category", "seed", "category for documents read from -src")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

func main() {
	engine, err := corpus.NewEngine(*dbPath)
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	ctx := context.Background()

	if *seedFileName != "" {
		lines, err := linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}

		n := 0
		for line := range lines {
			if line == "" {
				continue
			}
			n++
			fileName := fmt.Sprintf("seed_%04d.txt", n)
			report, err := engine.IngestDocument(ctx, line, fileName, *category)
			if err != nil {
				slog.Error("failed to ingest seed line", "file_name", fileName, "err", err)
				continue
			}
			slog.Info("seeded", "file_name", fileName, "chunks", report.ChunksEmbedded, "skipped", report.Skipped)
		}
		return
	}

	for _, doc := range documents {
		report, err := engine.IngestDocument(ctx, doc.text, doc.fileName, doc.category)
		if err != nil {
			slog.Error("failed to ingest document", "file_name", doc.fileName, "err", err)
			continue
		}
		slog.Info("seeded", "file_name", doc.fileName, "chunks", report.ChunksEmbedded, "skipped", report.Skipped)
	}
}
