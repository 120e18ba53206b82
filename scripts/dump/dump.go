package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/6529-Collections/flipscan/internal/eth"
	"github.com/dgraph-io/badger/v4"
)

// Dumps the badger block timestamp cache as tab-separated
// block number, unix timestamp and UTC time.
func main() {
	dbPath := flag.String("path", "./db/blocktimestamps", "Badger block timestamp cache directory")
	outputMode := flag.String("o", "console", "Output mode: 'console' or 'file'")
	outputFile := flag.String("f", "dump.tsv", "Output file (if mode is 'file')")
	flag.Parse()

	var out *os.File
	var err error

	if *outputMode == "file" {
		out, err = os.Create(*outputFile)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer out.Close()
	} else {
		out = os.Stdout
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithReadOnly(true).WithLogger(nil))
	if err != nil {
		log.Fatalf("Failed to open BadgerDB: %v", err)
	}
	defer db.Close()

	if *outputMode == "file" {
		fmt.Fprintln(os.Stderr, "Dumping block timestamps to file", *outputFile)
	}

	count := 0
	err = eth.NewBadgerBlockTimestampDb(db).ForEach(func(block, ts uint64) error {
		count++
		_, err := fmt.Fprintf(out, "%d\t%d\t%s\n", block, ts, time.Unix(int64(ts), 0).UTC().Format(time.RFC3339))
		return err
	})
	if err != nil {
		log.Fatalf("Error while iterating: %v", err)
	}

	fmt.Fprintf(os.Stderr, "Dump complete, %d blocks.\n", count)
}
